package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
)

func (c *cli) clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List, add and delete clients",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List clients with their checklist progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.connect(cmd)
			if err != nil {
				return err
			}
			listing, err := dashboard.NewDirectory(e.store, e.events, e.log).List(cmd.Context())
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).listing(listing)
			return nil
		},
	})

	var nc domain.NewClient
	add := &cobra.Command{
		Use:   "add <business-name>",
		Short: "Create a client and its checklists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.connect(cmd)
			if err != nil {
				return err
			}
			nc.BusinessName = args[0]
			client, err := dashboard.NewDirectory(e.store, e.events, e.log).Create(cmd.Context(), nc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", client.BusinessName, client.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "briefing: %s\n", e.links.BriefingLink(client.ID))
			return nil
		},
	}
	add.Flags().StringVar(&nc.AdminEmail, "email", "", "admin email")
	add.Flags().StringVar(&nc.Website, "website", "", "website")
	add.Flags().StringVar(&nc.Industry, "industry", "", "industry")
	add.Flags().StringVar(&nc.Country, "country", "", "country")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <client-id>",
		Short: "Delete a client with its tasks and briefing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.connect(cmd)
			if err != nil {
				return err
			}
			if err := dashboard.NewDirectory(e.store, e.events, e.log).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show and toggle checklist tasks",
	}

	var typ string
	list := &cobra.Command{
		Use:   "list <client-id>",
		Short: "Show the checklists of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := domain.ChecklistTypes
			if typ != "" {
				t, err := domain.ParseChecklistType(typ)
				if err != nil {
					return err
				}
				types = []domain.ChecklistType{t}
			}
			e, err := c.connect(cmd)
			if err != nil {
				return err
			}
			if _, err := dashboard.NewDirectory(e.store, e.events, e.log).Get(cmd.Context(), args[0]); err != nil {
				return err
			}
			cl := dashboard.NewChecklist(e.store, e.events, e.log, args[0])
			if err := cl.Load(cmd.Context()); err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			for _, t := range types {
				p.checklist(cl, t)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&typ, "type", "t", "", "checklist type (setup or onboarding)")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <client-id> <task-id>",
		Short: "Flip the completion of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.connect(cmd)
			if err != nil {
				return err
			}
			cl := dashboard.NewChecklist(e.store, e.events, e.log, args[0])
			if err := cl.Load(cmd.Context()); err != nil {
				return err
			}
			task, err := cl.Toggle(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %d%%)\n", checkbox(task.IsCompleted), task.TaskName, task.ChecklistType, cl.Progress(task.ChecklistType))
			return nil
		},
	})
	return cmd
}

func (c *cli) briefingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "briefing",
		Short: "Show and edit the briefing of a client",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <client-id>",
		Short: "Print the briefing form with its current answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, client, ed, err := c.openBriefing(cmd, args[0])
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).briefing(client, ed, e.links)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <client-id> <field> <value>...",
		Short: "Answer a field; multi-choice fields take every selected option",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := domain.FieldByKey(args[1])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrUnknownField, args[1])
			}
			v := domain.FieldValue{List: args[2:]}
			if f.Kind != domain.FieldMulti {
				if len(args) != 3 {
					return fmt.Errorf("field %s takes a single value", f.Key)
				}
				v = domain.FieldValue{Text: args[2]}
			}
			_, _, ed, err := c.openBriefing(cmd, args[0])
			if err != nil {
				return err
			}
			if err := ed.Set(f.Key, v); err != nil {
				return err
			}
			return saveBriefing(cmd, ed)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <client-id> <field> <option>",
		Short: "Select or clear one option of a multi-choice field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, ed, err := c.openBriefing(cmd, args[0])
			if err != nil {
				return err
			}
			if err := ed.ToggleOption(args[1], args[2]); err != nil {
				return err
			}
			return saveBriefing(cmd, ed)
		},
	})
	return cmd
}

func (c *cli) openBriefing(cmd *cobra.Command, clientID string) (*env, domain.Client, *dashboard.BriefingEditor, error) {
	e, err := c.connect(cmd)
	if err != nil {
		return nil, domain.Client{}, nil, err
	}
	client, err := dashboard.NewDirectory(e.store, e.events, e.log).Get(cmd.Context(), clientID)
	if err != nil {
		return nil, domain.Client{}, nil, err
	}
	ed := dashboard.NewBriefingEditor(e.store, e.events, e.log, clientID)
	if err := ed.Load(cmd.Context()); err != nil {
		return nil, domain.Client{}, nil, err
	}
	return e, client, ed, nil
}

func saveBriefing(cmd *cobra.Command, ed *dashboard.BriefingEditor) error {
	b, err := ed.Save(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved briefing %s\n", b.ID)
	return nil
}

func (c *cli) linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <client-id>",
		Short: "Print the share links of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.connect(cmd)
			if err != nil {
				return err
			}
			client, err := dashboard.NewDirectory(e.store, e.events, e.log).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client:   %s\n", e.links.ClientLink(client.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "briefing: %s\n", e.links.BriefingLink(client.ID))
			return nil
		},
	}
}

func (c *cli) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [fragment]",
		Short: "Render the view a URL fragment such as #/client/<id> selects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.connect(cmd)
			if err != nil {
				return err
			}
			fragment := ""
			if len(args) == 1 {
				fragment = args[0]
			}
			screen, err := dashboard.NewSession(e.store, e.events, e.log).Open(cmd.Context(), fragment)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).screen(screen, e.links)
			return nil
		},
	}
}
