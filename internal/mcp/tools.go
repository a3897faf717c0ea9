package mcp

import "github.com/mark3labs/mcp-go/mcp"

var summarizeToolDef = mcp.NewTool("skim_summarize",
	mcp.WithDescription("Fetch a web page and return a markdown summary of it. "+
		"Requires an API key to be stored (see `skim key set`)."),
	mcp.WithString("url",
		mcp.Required(),
		mcp.Description("Absolute URL of the page to summarize"),
	),
	mcp.WithBoolean("with_code",
		mcp.Description("Keep the page's code examples in the summary"),
	),
	mcp.WithBoolean("export",
		mcp.Description("Also export the summary to the output folder"),
	),
)

var exportToolDef = mcp.NewTool("skim_export",
	mcp.WithDescription("Write markdown text to <output folder>/<file_name>.md, replacing any file with that name. "+
		"Blank lines are inserted after heading and emphasis lines."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Markdown text to export"),
	),
	mcp.WithString("file_name",
		mcp.Description("File name without extension. Derived from the first '# ' heading when omitted"),
	),
)

var settingsToolDef = mcp.NewTool("skim_settings",
	mcp.WithDescription("Show whether an API key is stored, the output folder and the window size."),
)

var saveFolderToolDef = mcp.NewTool("skim_save_folder",
	mcp.WithDescription("Set the output folder. The folder must exist and be writable; otherwise the current one is kept."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Absolute path of an existing, writable folder"),
	),
)
