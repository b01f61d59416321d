// ABOUTME: MCP server subcommand
// ABOUTME: Serves people, import and visualization tools over stdio for agent clients
package cli

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/contactshq/handlers"
)

// NewMCPServer registers every tool and resource against app.
func NewMCPServer(app *App, version string) *mcp.Server {
	peopleHandlers := handlers.NewPeopleHandlers(app.Gateway)
	importHandlers := handlers.NewImportHandlers(app.Importer, app.Source)
	vizHandlers := handlers.NewVizHandlers(app.Gateway)
	resourceHandlers := handlers.NewResourceHandlers(app.Gateway)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "contactshq",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_people",
		Description: "List people, optionally filtered by given name or group",
	}, peopleHandlers.ListPeople)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_person",
		Description: "Get every stored field of one person",
	}, peopleHandlers.GetPerson)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_person",
		Description: "Add a person; given_name is required",
	}, peopleHandlers.AddPerson)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_person",
		Description: "Update a person. Empty text keeps stored values; a list replaces that whole sequence",
	}, peopleHandlers.UpdatePerson)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_person",
		Description: "Delete a person permanently",
	}, peopleHandlers.DeletePerson)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "next_label",
		Description: "Suggest the next unused label for a phone, email, social, postal, url or relation entry",
	}, peopleHandlers.NextLabel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "import_contacts",
		Description: "Import contacts from a vCard file or Google Contacts, skipping ones imported before",
	}, importHandlers.ImportContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "import_status",
		Description: "Show the last import state for a source",
	}, importHandlers.ImportStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of people, their relations, companies and groups",
	}, vizHandlers.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Summarize the address book: types, availability, groups and upcoming birthdays",
	}, vizHandlers.Dashboard)

	server.AddResource(&mcp.Resource{
		URI:         handlers.PeopleResourceURI,
		Name:        "people",
		Description: "Every stored person as JSON",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.PersonResourceURI,
		Name:        "person",
		Description: "One person as JSON",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(app *App, version string) error {
	// stdout carries the protocol; consent prompts go to stderr.
	app.Out = os.Stderr
	app.Logger.Info("starting MCP server", zap.String("version", version))

	server := NewMCPServer(app, version)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}
