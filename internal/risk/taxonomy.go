// Package risk holds the ESG risk categories of the Borsa İstanbul
// sustainability guide and renders them as a tree or a treemap.
package risk

import (
	"fmt"
	"io"
	"strings"
)

const (
	Title   = "Kurumsal Sürdürülebilirlik (ÇSY) Risk Kategorileri"
	Summary = "Bu interaktif görselleştirme, Borsa İstanbul Sürdürülebilirlik Rehberi'nde belirtilen ÇSY risklerini hiyerarşik olarak göstermektedir. Kutucukların üzerine gelerek detayları ve tanımlarını görebilirsiniz."
	Caption = "Kaynak: Borsa İstanbul - Sürdürülebilirlik Rehberi (Sayfa 24) ve Erdem & Erdem - ÇSY Terimler Sözlüğü"
)

// Palette colours the top-level categories in order.
var Palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c"}

// RootColor fills the root box.
const RootColor = "lightgrey"

// Category is one entry of the taxonomy. Value is the category's own weight;
// its displayed size also includes its descendants.
type Category struct {
	ID         string `json:"id"`
	Parent     string `json:"parent,omitempty"`
	Label      string `json:"label"`
	Value      int    `json:"value"`
	Definition string `json:"definition,omitempty"`
}

var categories = []Category{
	{"ÇSY Riskleri", "", "ÇSY Riskleri", 0, ""},
	{"Çevresel Riskler", "ÇSY Riskleri", "Çevresel Riskler", 14, "Doğal çevrenin ve doğal sistemlerin kalitesi ile işleyişi ile ilgili konulardır."},
	{"Sosyal Riskler", "ÇSY Riskleri", "Sosyal Riskler", 10, "Bir işletmenin işgücü, insan hakları ve çevresindeki toplumu etkileyen eylemleriyle ilgili konulardır."},
	{"Yönetişim Riskleri", "ÇSY Riskleri", "Yönetişim Riskleri", 4, "Şirketlerin ve yatırım yapılan diğer kuruluşların yönetişimine ilişkin konulardır."},
	{"İklim Değişikliği", "Çevresel Riskler", "İklim Değişikliği", 4, "İklim olaylarındaki değişimlerden kaynaklanan fiziksel ve düşük karbon ekonomisine geçişten kaynaklanan geçiş risklerini içerir."},
	{"Doğal Kaynak Kullanımı", "Çevresel Riskler", "Doğal Kaynakların Kullanımı", 3, "Malzeme döngülerinin geri dönüşümü, atık yönetimi, biyoçeşitliliğin korunması ve sürdürülebilir su yönetimi gibi konuları kapsar."},
	{"İnsan Kaynakları Yönetimi", "Sosyal Riskler", "İnsan Kaynakları Yönetimi", 3, "İş sağlığı ve güvenliği, yeteneklerin çekilmesi, elde tutulması ve kurum içinde çeşitlilik, eşit fırsatlar ve refah gibi konuları içerir."},
	{"Ürün Sorumluluğu", "Sosyal Riskler", "Ürün Sorumluluğu", 1, "Ürün güvenilirliği, kalite ve güvenlik yönetmeliklerine uygunluğun garanti edilmesiyle ilgilidir."},
	{"Toplumsal Etkiler", "Sosyal Riskler", "Toplum Üzerindeki Etkiler", 2, "Yerel alanlarda güven kaybı ve üretilen katma değerin dengeli yönetimi ve dağıtımı gibi konuları kapsar."},
	{"İş Etiği ve Kurumsal Davranış", "Yönetişim Riskleri", "İş Etiği", 2, "Yolsuzluk, rüşvet gibi hukuka aykırı davranışların önlenmesi ve sorumlu tedarik uygulamalarının benimsenmesidir."},
	{"Politika ve Düzenleyici Değişiklikler", "İklim Değişikliği", "Politika Değişiklikleri", 1, "İklimle ilgili yeni veya değişen düzenlemeler nedeniyle ortaya çıkabilecek işletme maliyetleri veya varlık değer düşüklüğü riskleri."},
	{"İnovasyon Geliştirme", "İklim Değişikliği", "Yenilik Geliştirme", 1, "Yenilikçi ve ekolojik açıdan sorumlu ürün ve teknolojilerin zamanında geliştirilmemesi riski."},
	{"Karbon Ayak İzi Azaltma", "İklim Değişikliği", "Karbon Ayak İzini Azaltma", 1, "Şirketin faaliyetleri sonucu ürettiği toplam sera gazı emisyonlarının (karbon ayak izi) etkili bir şekilde azaltılmasına yönelik çabalar."},
	{"Fiziksel Riskler", "İklim Değişikliği", "Fiziksel Riskler", 1, "Sıklığı ve şiddeti artan fırtına, sel, kuraklık gibi aşırı hava olaylarından kaynaklanan akut ve kronik riskler."},
	{"Döngüsel Ekonomi", "Doğal Kaynak Kullanımı", "Döngüsel Ekonomi", 1, "Atık oluşumunu en aza indirirken, ürün ve malzemelerin değerini mümkün olduğunca uzun süre korumayı amaçlayan sistem."},
	{"Biyoçeşitlilik", "Doğal Kaynak Kullanımı", "Biyoçeşitlilik Korunması", 1, "Doğal habitatların bozulmasını azaltma, türlerin neslinin tükenmesini engelleme ve ekosistemleri koruma çabaları."},
	{"Su Yönetimi", "Doğal Kaynak Kullanımı", "Su Yönetimi", 1, "Şirketin su tüketimini yönetmesi, su tasarrufu için adımlar atması ve su kaynaklarının sürdürülebilir kullanımını sağlaması."},
	{"İş Sağlığı ve Güvenliği", "İnsan Kaynakları Yönetimi", "İş Sağlığı ve Güvenliği", 1, "Şirketin en değerli varlığı olan insan kaynağını korumaya yönelik politikalar ve uygulamalar bütünü."},
	{"Yetenek Yönetimi", "İnsan Kaynakları Yönetimi", "Yetenekleri Çekme/Tutma", 1, "Nitelikli yetenekleri şirkete çekme, elde tutma ve mesleki gelişimlerini sağlama faaliyetleri."},
	{"Çeşitlilik ve Eşitlik", "İnsan Kaynakları Yönetimi", "Çeşitlilik ve Eşit Fırsatlar", 1, "Kurum içinde çeşitlilik, eşit fırsatlar ve refah ortamının sağlanması; ırk, cinsiyet, köken ayrımı yapmaksızın adil muamele."},
	{"Ürün Güvenilirliği", "Ürün Sorumluluğu", "Ürün Güvenilirliği", 1, "Ürünlerin kalite, güvenlik yönetmelikleri ve standartlarına uygunluğunun garanti edilmesi."},
	{"Yerel Güven Kaybı", "Toplumsal Etkiler", "Yerel Güven Kaybı", 1, "Şirket faaliyetlerinin yerel topluluklar üzerindeki olumsuz etkileri sonucu ortaya çıkan itibar ve güven riski."},
	{"Katma Değer Dağıtımı", "Toplumsal Etkiler", "Katma Değer Dağıtımı", 1, "Şirketin ürettiği ekonomik değerin paydaşlar (çalışanlar, toplum vb.) arasında dengeli bir şekilde yönetilmesi ve dağıtılması."},
	{"Hukuka Aykırı Davranışların Önlenmesi", "İş Etiği ve Kurumsal Davranış", "Yolsuzluğun Önlenmesi", 1, "Yolsuzluk, gasp ve rüşvet dahil olmak üzere hukuka aykırı davranışların önlenmesi, tespiti ve bunlarla mücadele edilmesi."},
	{"Sorumlu Tedarik Zinciri", "İş Etiği ve Kurumsal Davranış", "Sorumlu Tedarik Zinciri", 1, "Küresel değer zincirinde etik ihlallerin önlenmesi ve sorumlu tedarik uygulamalarının benimsenmesi."},
}

// Categories returns the flat list in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Node is a category with its children attached.
type Node struct {
	Category
	Children []*Node `json:"children,omitempty"`
	// Color is inherited from the top-level category.
	Color string `json:"color"`

	up *Node
}

// Size is the node's own value plus its descendants' sizes.
func (n *Node) Size() int {
	total := n.Value
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// Depth is 0 for the root.
func (n *Node) Depth() int {
	d := 0
	for p := n.up; p != nil; p = p.up {
		d++
	}
	return d
}

// ParentLabel returns the parent's label, or "" for the root.
func (n *Node) ParentLabel() string {
	if n.up == nil {
		return ""
	}
	return n.up.Label
}

// Tree links the categories into a tree and returns its root.
func Tree() (*Node, error) {
	return build(categories)
}

func build(cats []Category) (*Node, error) {
	nodes := make(map[string]*Node, len(cats))
	var root *Node
	for _, c := range cats {
		if _, dup := nodes[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q", c.ID)
		}
		nodes[c.ID] = &Node{Category: c}
	}
	for _, c := range cats {
		n := nodes[c.ID]
		if c.Parent == "" {
			if root != nil {
				return nil, fmt.Errorf("multiple roots: %q and %q", root.ID, c.ID)
			}
			root = n
			continue
		}
		p, ok := nodes[c.Parent]
		if !ok {
			return nil, fmt.Errorf("category %q has unknown parent %q", c.ID, c.Parent)
		}
		n.up = p
		p.Children = append(p.Children, n)
	}
	if root == nil {
		return nil, fmt.Errorf("no root category")
	}

	root.Color = RootColor
	for i, top := range root.Children {
		paint(top, Palette[i%len(Palette)])
	}
	return root, nil
}

func paint(n *Node, color string) {
	n.Color = color
	for _, c := range n.Children {
		paint(c, color)
	}
}

// RenderText writes the tree as an indented outline with sizes and
// definitions.
func RenderText(w io.Writer, root *Node) error {
	var walk func(n *Node) error
	walk = func(n *Node) error {
		indent := strings.Repeat("  ", n.Depth())
		if _, err := fmt.Fprintf(w, "%s%s (%d)\n", indent, n.Label, n.Size()); err != nil {
			return err
		}
		if n.Definition != "" {
			if _, err := fmt.Fprintf(w, "%s  %s\n", indent, n.Definition); err != nil {
				return err
			}
		}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}
