package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/recall/internal/memory"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start or end sessions",
	}
	cmd.AddCommand(sessionStartCmd())
	cmd.AddCommand(sessionEndCmd())
	return cmd
}

func sessionStartCmd() *cobra.Command {
	var p memory.StartSessionParams
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session and print its ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if p.Directory == "" {
				p.Directory, _ = os.Getwd()
			}
			if p.Project == "" && p.Directory != "" {
				p.Project = filepath.Base(p.Directory)
			}
			if p.Branch == "" {
				p.Branch = gitBranch(p.Directory)
			}

			var sess *memory.Session
			err = memory.With(cfg.Memory(), func(s *memory.Store) error {
				sess, err = s.StartSession(p)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.ID, "id", "", "session ID (default: generated)")
	cmd.Flags().StringVar(&p.Project, "project", "", "project name (default: directory name)")
	cmd.Flags().StringVar(&p.Directory, "dir", "", "working directory (default: current)")
	cmd.Flags().StringVar(&p.Branch, "branch", "", "git branch (default: detected)")
	cmd.Flags().StringVar(&p.PlanFile, "plan", "", "plan file the session works from")
	return cmd
}

func sessionEndCmd() *cobra.Command {
	var id, status, summary string
	cmd := &cobra.Command{
		Use:   "end",
		Short: "End a session (default: the active one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var sess *memory.Session
			err = memory.With(cfg.Memory(), func(s *memory.Store) error {
				target := id
				if target == "" {
					active, err := s.ActiveSession()
					if err != nil {
						return err
					}
					target = active.ID
				}
				sess, err = s.EndSession(target, memory.SessionStatus(status), summary)
				return err
			})
			if errors.Is(err, memory.ErrNoActiveSession) {
				return errors.New("no active session to end; pass --id")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", sess.ID, sess.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "session ID (default: the active session)")
	cmd.Flags().StringVar(&status, "status", string(memory.StatusCompleted), "completed or abandoned")
	cmd.Flags().StringVar(&summary, "summary", "", "what the session accomplished")
	return cmd
}

// gitBranch returns the checked-out branch in dir, or "" outside a repo.
func gitBranch(dir string) string {
	c := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	c.Dir = dir
	out, err := c.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
