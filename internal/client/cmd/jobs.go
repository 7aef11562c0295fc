package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/willr196/vergo-db-sub002/internal/client/api"
	"github.com/willr196/vergo-db-sub002/internal/client/offline"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

const jobsCacheKey = "jobs"

type jobsResponse struct {
	Jobs []models.Job `json:"jobs"`
}

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "Browse and apply to jobs"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List open jobs (cached copy when offline)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp jobsResponse
			err := a.api.Get(cmd.Context(), "/api/v1/jobs", &resp)
			if err == nil {
				_ = a.offline.SaveCache(cmd.Context(), jobsCacheKey, resp.Jobs)
				return printJobs(resp.Jobs)
			}
			if !api.IsNetwork(err) && a.monitor.Online() {
				return err
			}
			a.monitor.Observe(false)
			var cached []models.Job
			savedAt, cacheErr := a.offline.LoadCache(cmd.Context(), jobsCacheKey, &cached)
			if cacheErr != nil {
				// No fallback available; surface the original failure.
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "offline: showing jobs cached at %s\n", savedAt.Format("2006-01-02 15:04"))
			return printJobs(cached)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply JOB_ID",
		Short: "Apply to a job (queued when offline)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]
			if !a.monitor.Online() {
				return queueAction(cmd, a, offline.ActionApply, map[string]string{"job_id": jobID})
			}
			err := a.api.Post(cmd.Context(), "/api/v1/jobs/"+jobID+"/apply", nil, nil)
			if api.IsNetwork(err) {
				a.monitor.Observe(false)
				return queueAction(cmd, a, offline.ActionApply, map[string]string{"job_id": jobID})
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Application submitted")
			return nil
		},
	})

	return cmd
}

func newApplicationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "applications", Short: "Manage your applications"}

	cmd.AddCommand(&cobra.Command{
		Use:   "withdraw APPLICATION_ID",
		Short: "Withdraw an application (queued when offline)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID := args[0]
			if !a.monitor.Online() {
				return queueAction(cmd, a, offline.ActionWithdraw, map[string]string{"application_id": appID})
			}
			err := a.api.Delete(cmd.Context(), "/api/v1/applications/"+appID, nil)
			if api.IsNetwork(err) {
				a.monitor.Observe(false)
				return queueAction(cmd, a, offline.ActionWithdraw, map[string]string{"application_id": appID})
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Application withdrawn")
			return nil
		},
	})

	return cmd
}

func queueAction(cmd *cobra.Command, a *app, typ string, payload any) error {
	action, err := a.offline.Enqueue(cmd.Context(), typ, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Offline: %s queued (%s). Run 'vergo sync' when back online.\n", typ, action.ID)
	return nil
}

func printJobs(jobs []models.Job) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}
