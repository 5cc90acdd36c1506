package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/todos"
)

// loadTodos creates a controller and fills it from the server, the way the
// dashboard does before any change
func (a *app) loadTodos(cmd *cobra.Command) (*todos.Controller, error) {
	ctrl := todos.New(a.client, a.session, a.logger)
	if err := ctrl.Load(cmd.Context()); err != nil {
		return nil, userError(ctrl.Err(), err)
	}
	return ctrl, nil
}

func (a *app) renderCollection(cmd *cobra.Command, ctrl *todos.Controller) error {
	list := ctrl.Todos()
	envelope := models.TodoList{Todos: list, Count: len(list)}
	return render(cmd.OutOrStdout(), a.output, envelope, func(w io.Writer) error {
		return renderTodos(w, list, ctrl.Summary(), ctrl.Pending)
	})
}

// requireLocal rejects ids that are not in the loaded collection
func requireLocal(ctrl *todos.Controller, id string) error {
	if _, ok := ctrl.Get(id); !ok {
		return fmt.Errorf("no todo with id %s", id)
	}
	return nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			return a.renderCollection(cmd, ctrl)
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}

			var desc *string
			if cmd.Flags().Changed("description") {
				desc = &description
			}
			if _, err := ctrl.Add(cmd.Context(), strings.Join(args, " "), desc); err != nil {
				return userError(ctrl.Err(), err)
			}
			return a.renderCollection(cmd, ctrl)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a todo's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields models.TodoUpdate
			if cmd.Flags().Changed("title") {
				fields.Title = &title
			}
			if cmd.Flags().Changed("description") {
				fields.Description = &description
			}
			if fields.Title == nil && fields.Description == nil {
				return fmt.Errorf("nothing to update: pass --title or --description")
			}

			ctrl, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			if err := requireLocal(ctrl, args[0]); err != nil {
				return err
			}
			if _, err := ctrl.Update(cmd.Context(), args[0], fields); err != nil {
				return userError(ctrl.Err(), err)
			}
			return a.renderCollection(cmd, ctrl)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			if err := ctrl.Remove(cmd.Context(), args[0]); err != nil {
				return userError(ctrl.Err(), err)
			}
			return a.renderCollection(cmd, ctrl)
		},
	}
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between pending and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			if err := requireLocal(ctrl, args[0]); err != nil {
				return err
			}
			if _, err := ctrl.ToggleComplete(cmd.Context(), args[0]); err != nil {
				return userError(ctrl.Err(), err)
			}
			return a.renderCollection(cmd, ctrl)
		},
	}
}
