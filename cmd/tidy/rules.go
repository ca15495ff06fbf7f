package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-files-must-flow/internal/cli"
	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage organization rules",
		Long:  `List, add, delete, and preview the rules that route files to destinations.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(testRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ruleSet, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(ruleSet) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules found. Use 'tidy rules add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Order"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Conditions"),
				cli.BoldStyle.Render("Destination"),
				cli.BoldStyle.Render("Enabled"))

			for _, rule := range ruleSet {
				enabled := cli.SuccessStyle.Render("yes")
				if !rule.Enabled {
					enabled = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
					rule.ID, rule.SortOrder, rule.Name,
					describeTree(rule.Conditions), rule.ResolvedDestination(), enabled)
			}

			return nil
		},
	}
}

func addRuleCmd() *cobra.Command {
	var (
		extension   string
		contains    string
		startsWith  string
		endsWith    string
		kind        string
		olderThan   int
		dateField   string
		largerThan  string
		destination string
		toTrash     bool
		anyOf       bool
		excludeText []string
		sortOrder   int
		category    string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new rule",
		Long: `Create a rule from condition flags. Multiple conditions combine with AND
by default, or with OR when --any is set. Rules run in ascending --order;
put more specific rules at lower order values, since the engine stops at
the first match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conditions, err := buildConditions(extension, contains, startsWith, endsWith, kind, olderThan, dateField, largerThan)
			if err != nil {
				return err
			}
			if len(conditions) == 0 {
				return fmt.Errorf("at least one condition flag is required")
			}

			operator := model.OperatorAnd
			if len(conditions) == 1 {
				operator = model.OperatorSingle
			} else if anyOf {
				operator = model.OperatorOr
			}

			var exclusions []model.Condition
			for _, text := range excludeText {
				excl, exclErr := model.NewNameContains(text)
				if exclErr != nil {
					return exclErr
				}
				exclusions = append(exclusions, excl)
			}

			action := model.ActionMove
			if toTrash {
				action = model.ActionDelete
			}

			rule := &model.Rule{
				Name:        args[0],
				Action:      action,
				Destination: destination,
				Category:    category,
				Conditions:  model.ConditionTree{Operator: operator, Conditions: conditions},
				Exclusions:  exclusions,
				SortOrder:   sortOrder,
				Enabled:     true,
			}
			if err := rule.Validate(); err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Created rule %q (id %d): %s -> %s",
					rule.Name, rule.ID, describeTree(rule.Conditions), rule.ResolvedDestination())))
			return nil
		},
	}

	cmd.Flags().StringVar(&extension, "extension", "", "match files with this extension")
	cmd.Flags().StringVar(&contains, "contains", "", "match files whose name contains this text")
	cmd.Flags().StringVar(&startsWith, "starts-with", "", "match files whose name starts with this text")
	cmd.Flags().StringVar(&endsWith, "ends-with", "", "match files whose name ends with this text")
	cmd.Flags().StringVar(&kind, "kind", "", "match files of this kind (image, video, document, audio, archive, code)")
	cmd.Flags().IntVar(&olderThan, "older-than", 0, "match files older than this many days")
	cmd.Flags().StringVar(&dateField, "date-field", "modified", "timestamp for --older-than (created, modified, accessed)")
	cmd.Flags().StringVar(&largerThan, "larger-than", "", "match files larger than this size (e.g. 500KB, 2.5MB)")
	cmd.Flags().StringVar(&destination, "destination", "", "destination folder for matching files")
	cmd.Flags().BoolVar(&toTrash, "trash", false, "send matching files to the trash instead of moving them")
	cmd.Flags().BoolVar(&anyOf, "any", false, "match when any condition holds instead of all")
	cmd.Flags().StringArrayVar(&excludeText, "exclude-contains", nil, "veto the rule when the name contains this text (repeatable)")
	cmd.Flags().IntVar(&sortOrder, "order", 100, "evaluation order (lower runs first)")
	cmd.Flags().StringVar(&category, "category", "", "owning category for the rule")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}
}

// testRuleCmd previews which files a saved rule would match, without moving
// anything. Useful before enabling a newly authored rule.
func testRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <id> <path>...",
		Short: "Preview which files a rule matches",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule, err := store.GetRule(ctx, id)
			if err != nil {
				return err
			}

			files, err := collectFileFacts(args[1:])
			if err != nil {
				return err
			}

			// Preview evaluates the one rule in isolation, enabled or not.
			preview := *rule
			preview.Enabled = true

			engine := rules.NewEngine()
			results, err := engine.EvaluateFiles(ctx, files, []model.Rule{preview})
			if err != nil {
				return err
			}

			matched := 0
			for _, result := range results {
				if result.Status != model.StatusReady {
					continue
				}
				matched++
				fmt.Printf("%s %s %s\n",
					cli.SuccessStyle.Render("match:"),
					result.FilePath,
					cli.SubtleStyle.Render("("+result.MatchReason+")"))
			}

			fmt.Println(cli.InfoStyle.Render(
				fmt.Sprintf("%d of %d file(s) would match rule %q", matched, len(files), rule.Name)))
			return nil
		},
	}
}

func buildConditions(extension, contains, startsWith, endsWith, kind string, olderThan int, dateField, largerThan string) ([]model.Condition, error) {
	var conditions []model.Condition

	if extension != "" {
		cond, err := model.NewExtensionEquals(extension)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if contains != "" {
		cond, err := model.NewNameContains(contains)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if startsWith != "" {
		cond, err := model.NewNameStartsWith(startsWith)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if endsWith != "" {
		cond, err := model.NewNameEndsWith(endsWith)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if kind != "" {
		cond, err := model.NewKindEquals(model.FileKind(strings.ToLower(kind)))
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if olderThan > 0 {
		cond, err := model.NewOlderThan(olderThan, model.DateField(dateField), "")
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if largerThan != "" {
		bytes, err := model.ParseSize(largerThan)
		if err != nil {
			return nil, err
		}
		cond, err := model.NewLargerThan(bytes)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	return conditions, nil
}

func describeTree(tree model.ConditionTree) string {
	parts := make([]string, 0, len(tree.Conditions))
	for _, cond := range tree.Conditions {
		parts = append(parts, cond.Describe())
	}
	joiner := " AND "
	if tree.Operator == model.OperatorOr {
		joiner = " OR "
	}
	return strings.Join(parts, joiner)
}
