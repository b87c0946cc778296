package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mapikit/mapi/prop"
)

func init() {
	rootCmd.AddCommand(newTagCmd())
}

func newTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <hex>",
		Short: "Decode a property tag",
		Long: `The tag command splits a property tag into its id and type.

Example:
  mapictl tag 0x3001001F
  mapictl tag 0E080003 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(args)
		},
	}
}

// TagInfo describes a property tag.
type TagInfo struct {
	Tag         string `json:"tag"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	MultiValued bool   `json:"multi_valued"`
}

func parseTag(s string) (prop.Tag, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid tag %q: %w", s, err)
	}
	return prop.Tag(v), nil
}

func describeTag(t prop.Tag) TagInfo {
	return TagInfo{
		Tag:         fmt.Sprintf("0x%08X", uint32(t)),
		ID:          fmt.Sprintf("0x%04X", t.ID()),
		Type:        t.Type().String(),
		MultiValued: t.Type().IsMultiValued(),
	}
}

func runTag(args []string) error {
	t, err := parseTag(args[0])
	if err != nil {
		return err
	}
	info := describeTag(t)
	if jsonOut {
		return printJSON(info)
	}
	printInfo("Tag:   %s\n", info.Tag)
	printInfo("ID:    %s\n", info.ID)
	printInfo("Type:  %s\n", info.Type)
	if info.MultiValued {
		printInfo("Multi-valued\n")
	}
	return nil
}
