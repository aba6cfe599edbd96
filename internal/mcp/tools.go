package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askTool defines the ask_esg MCP tool.
var askTool = mcp.NewTool("ask_esg",
	mcp.WithDescription("Answer a sustainability (ESG / ÇSY) question strictly from the indexed documents. Returns the answer and its sources with page numbers."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question, in Turkish or English"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Search the indexed sustainability documents semantically and return matching passages without generating an answer."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default: all retrieved)"),
	),
	mcp.WithBoolean("expand",
		mcp.Description("Also search model-generated rephrasings of the query"),
	),
)

// riskTaxonomyTool defines the get_risk_taxonomy MCP tool.
var riskTaxonomyTool = mcp.NewTool("get_risk_taxonomy",
	mcp.WithDescription("Get the hierarchy of ESG risk categories with their definitions."),
)
