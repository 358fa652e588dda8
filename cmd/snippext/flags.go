package main

import (
	"github.com/urfave/cli/v3"

	"github.com/doctavious/snippext/internal"
	"github.com/doctavious/snippext/internal/models"
)

func extractFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "start",
			Usage:   "Text that opens a snippet after the comment prefix",
			Sources: cli.EnvVars("SNIPPEXT_START"),
		},
		&cli.StringFlag{
			Name:    "end",
			Usage:   "Text that closes a snippet after the comment prefix",
			Sources: cli.EnvVars("SNIPPEXT_END"),
		},
		&cli.StringSliceFlag{
			Name:    "comment-prefix",
			Usage:   "Comment prefix preceding snippet markers (repeatable)",
			Sources: cli.EnvVars("SNIPPEXT_COMMENT_PREFIXES"),
		},
		&cli.StringSliceFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Local source file glob (repeatable); replaces configured sources",
			Sources: cli.EnvVars("SNIPPEXT_SOURCES"),
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Directory for generated snippet files",
			Sources: cli.EnvVars("SNIPPEXT_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:    "extension",
			Usage:   "Extension of generated snippet files",
			Sources: cli.EnvVars("SNIPPEXT_OUTPUT_EXTENSION"),
		},
		&cli.StringSliceFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "Target file or glob to splice snippets into (repeatable)",
			Sources: cli.EnvVars("SNIPPEXT_TARGETS"),
		},
		&cli.StringFlag{
			Name:    "link-format",
			Usage:   "Source link format (AzureRepos, BitBucket, Gitea, Gitee, GitHub, GitLab)",
			Sources: cli.EnvVars("SNIPPEXT_LINK_FORMAT"),
		},
		&cli.StringFlag{
			Name:    "source-link-prefix",
			Usage:   "Prefix prepended to links of local sources",
			Sources: cli.EnvVars("SNIPPEXT_SOURCE_LINK_PREFIX"),
		},
		&cli.BoolFlag{
			Name:    "omit-source-links",
			Usage:   "Leave source links out of rendered snippets",
			Sources: cli.EnvVars("SNIPPEXT_OMIT_SOURCE_LINKS"),
		},
		&cli.BoolFlag{
			Name:    "retain-nested-snippet-comments",
			Usage:   "Keep nested snippet markers in enclosing snippets",
			Sources: cli.EnvVars("SNIPPEXT_RETAIN_NESTED_SNIPPET_COMMENTS"),
		},
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Re-run extraction whenever sources change",
		},
	}
}

// applyExtractFlags overlays the extract flags that were set onto cfg.
func applyExtractFlags(cmd *cli.Command, cfg *internal.Config) {
	if cmd.IsSet("start") {
		cfg.Start = cmd.String("start")
	}
	if cmd.IsSet("end") {
		cfg.End = cmd.String("end")
	}
	if cmd.IsSet("comment-prefix") {
		cfg.CommentPrefixes = cmd.StringSlice("comment-prefix")
	}
	if cmd.IsSet("source") {
		cfg.Sources = []models.SourceConfig{{Files: cmd.StringSlice("source")}}
	}
	if cmd.IsSet("output-dir") {
		cfg.OutputDir = cmd.String("output-dir")
	}
	if cmd.IsSet("extension") {
		cfg.OutputExtension = cmd.String("extension")
	}
	if cmd.IsSet("target") {
		cfg.Targets = cmd.StringSlice("target")
	}
	if cmd.IsSet("link-format") {
		// Unknown values are kept so validation can report them.
		_ = cfg.LinkFormat.UnmarshalText([]byte(cmd.String("link-format")))
	}
	if cmd.IsSet("source-link-prefix") {
		cfg.SourceLinkPrefix = cmd.String("source-link-prefix")
	}
	if cmd.IsSet("omit-source-links") {
		cfg.OmitSourceLinks = cmd.Bool("omit-source-links")
	}
	if cmd.IsSet("retain-nested-snippet-comments") {
		cfg.RetainNestedSnippetComments = cmd.Bool("retain-nested-snippet-comments")
	}
}
