package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// sourcesListCommand prints every source the directory knows about.
type sourcesListCommand struct {
	verbose *bool
}

func (cmd *sourcesListCommand) run(c *kingpin.ParseContext) error {
	ctx, stop := runContext()
	defer stop()

	sess, err := newSession(*cmd.verbose)
	if err != nil {
		return err
	}

	list, err := sess.api.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No sources found")
		return nil
	}

	active := color.New(color.FgGreen).Sprint("active")
	paused := color.New(color.FgYellow).Sprint("paused")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Platform", "Status", "Messages", "Bytes"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, src := range list {
		status := active
		if src.Attributes.IngestingPaused {
			status = paused
		}
		table.Append([]string{
			src.ID,
			src.Attributes.Name,
			src.Attributes.Platform,
			status,
			humanize.Comma(src.Attributes.MessagesCount),
			humanize.Bytes(uint64(src.Attributes.BytesCount)),
		})
	}
	table.Render()
	return nil
}

// sourcesGetCommand prints one source in detail.
type sourcesGetCommand struct {
	id      *string
	verbose *bool
}

func (cmd *sourcesGetCommand) run(c *kingpin.ParseContext) error {
	ctx, stop := runContext()
	defer stop()

	sess, err := newSession(*cmd.verbose)
	if err != nil {
		return err
	}

	src, err := sess.api.Get(ctx, *cmd.id)
	if err != nil {
		return fmt.Errorf("fetching source %s: %w", *cmd.id, err)
	}

	bold := color.New(color.Bold)
	bold.Println(src.Attributes.Name)
	fmt.Printf("\tid: %s\n", src.ID)
	fmt.Printf("\tplatform: %s\n", src.Attributes.Platform)
	fmt.Printf("\ttable: %s\n", src.Attributes.TableName)
	fmt.Printf("\ttoken: %s\n", truncateToken(src.Attributes.Token))
	fmt.Printf("\tingesting paused: %v\n", src.Attributes.IngestingPaused)
	fmt.Printf("\tmessages: %s\n", humanize.Comma(src.Attributes.MessagesCount))
	fmt.Printf("\tbytes: %s\n", humanize.Bytes(uint64(src.Attributes.BytesCount)))
	fmt.Printf("\tcreated: %s\n", src.Attributes.CreatedAt)
	fmt.Printf("\tupdated: %s\n", src.Attributes.UpdatedAt)
	return nil
}

// truncateToken keeps enough of an ingestion token to identify it without
// printing the whole secret.
func truncateToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}

func addSourcesCommands(app *kingpin.Application) {
	src := app.Command("sources", "Inspect the source directory.")

	listCmd := &sourcesListCommand{}
	list := src.Command("list", "List all sources.").Action(listCmd.run)
	listCmd.verbose = list.Flag("verbose", "Print request diagnostics to stderr.").Short('v').Bool()

	getCmd := &sourcesGetCommand{}
	get := src.Command("get", "Show one source in detail.").Action(getCmd.run)
	getCmd.id = get.Arg("id", "Source id.").Required().String()
	getCmd.verbose = get.Flag("verbose", "Print request diagnostics to stderr.").Short('v').Bool()
}
