// guide.go implements the "dock guide" command.
//
// Pages are embedded by the guide package, so they ship with the binary.
// Terminal output is rendered through glamour; pipes get the markdown as is,
// which suits loading a page into an LLM's context.

package core

import (
	"errors"
	"fmt"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/guide"
	"github.com/spf13/cobra"
)

func newGuideCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "guide [topic]",
		Short: "Show the dock usage guide",
		Long: `Outputs the dock guide for humans and LLMs.

  dock guide           # main guide
  dock guide search    # palette search and ordering
  dock guide keys      # key bindings and overrides
  dock guide --list    # every topic`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGuide,
	}
	c.Flags().Bool(extension.FlagRaw, false, "Output raw markdown without rendering")
	c.Flags().Bool(extension.FlagList, false, "List the available topics")
	return c
}

func runGuide(c *cobra.Command, args []string) error {
	list, _ := c.Flags().GetBool(extension.FlagList)
	if list {
		return listTopics()
	}
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	raw, _ := c.Flags().GetBool(extension.FlagRaw)

	content, err := guide.Get(name)
	if errors.Is(err, guide.ErrUnknownTopic) {
		available, listErr := guide.List()
		if listErr != nil {
			return listErr
		}
		return cmd.PrintJSONError(fmt.Errorf("%w. Available: %v", err, available))
	}
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]string{"guide": name, "content": content})
	}
	fmt.Fprint(cmd.Out(), renderMarkdown(content, raw))
	return nil
}

func listTopics() error {
	topics, err := guide.Topics()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	if cmd.JSON() {
		return cmd.PrintJSON(topics)
	}
	for _, t := range topics {
		fmt.Fprintf(cmd.Out(), "%-8s %s\n", t.Name, t.Title)
	}
	return nil
}
