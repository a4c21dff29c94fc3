/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/ports"
	"airwatch/internal/usecase/jobs"
)

var (
	jobSubmitType    string
	jobSubmitStart   string
	jobSubmitEnd     string
	jobSubmitBBox    string
	jobSubmitSensors []string

	jobListStatus string
	jobListType   string
	jobListLimit  int
)

// jobsCmd represents the jobs command group
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage analysis jobs",
}

var jobsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an analysis job",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		start, err := time.Parse(time.RFC3339, jobSubmitStart)
		if err != nil {
			return errs.Wrap(err, "parse --start")
		}
		end, err := time.Parse(time.RFC3339, jobSubmitEnd)
		if err != nil {
			return errs.Wrap(err, "parse --end")
		}

		params := aq.JobParameters{
			Start:     start,
			End:       end,
			SensorIDs: jobSubmitSensors,
		}
		if jobSubmitBBox != "" {
			box, err := aq.ParseBoundingBox(jobSubmitBBox)
			if err != nil {
				return err
			}
			params.BBox = &box
		}

		job, err := deps.Jobs.Submit(cmd.Context(), jobs.SubmitInput{
			JobType:    jobSubmitType,
			Parameters: params,
		})
		if err != nil {
			return errs.Wrap(err, "submit job")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "submitted %s job: %s\n", job.JobType, job.JobID); err != nil {
			return errs.Wrap(err, "write submit output")
		}
		return nil
	}),
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis jobs",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		listed, err := deps.Jobs.List(cmd.Context(), ports.JobFilter{
			Status:  jobListStatus,
			JobType: jobListType,
			Limit:   jobListLimit,
		})
		if err != nil {
			return errs.Wrap(err, "list jobs")
		}

		out := cmd.OutOrStdout()
		if len(listed) == 0 {
			_, err := fmt.Fprintln(out, "no jobs")
			return err
		}
		for _, job := range listed {
			if _, err := fmt.Fprintf(out, "%s  %-8s  %-9s  %s\n",
				job.JobID, job.JobType, job.Status, job.CreatedAt.Format(time.RFC3339)); err != nil {
				return errs.Wrap(err, "write list output")
			}
		}
		return nil
	}),
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job, including its result path or error",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		job, err := deps.Jobs.Get(cmd.Context(), cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "get job")
		}

		raw, err := json.MarshalIndent(jobView(job), "", "  ")
		if err != nil {
			return errs.Wrap(err, "encode job")
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw)); err != nil {
			return errs.Wrap(err, "write show output")
		}
		return nil
	}),
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a pending job",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		job, err := deps.Jobs.Cancel(cmd.Context(), cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "cancel job")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "cancelled job %s\n", job.JobID); err != nil {
			return errs.Wrap(err, "write cancel output")
		}
		return nil
	}),
}

type jobOutput struct {
	JobID       string     `json:"job_id"`
	JobType     string     `json:"job_type"`
	Status      string     `json:"status"`
	Parameters  string     `json:"parameters"`
	ResultPath  *string    `json:"result_path,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func jobView(job ports.Job) jobOutput {
	return jobOutput{
		JobID:       job.JobID,
		JobType:     job.JobType,
		Status:      job.Status,
		Parameters:  job.Parameters,
		ResultPath:  job.ResultPath,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
}

func init() {
	jobsSubmitCmd.Flags().StringVar(&jobSubmitType, "type", "", "Job type: hotspot, anomaly, or trend")
	jobsSubmitCmd.Flags().StringVar(&jobSubmitStart, "start", "", "Window start (RFC 3339)")
	jobsSubmitCmd.Flags().StringVar(&jobSubmitEnd, "end", "", "Window end (RFC 3339)")
	jobsSubmitCmd.Flags().StringVar(&jobSubmitBBox, "bbox", "", "Bounding box: minLon,minLat,maxLon,maxLat")
	jobsSubmitCmd.Flags().StringSliceVar(&jobSubmitSensors, "sensor", nil, "Restrict to sensor ids (repeatable)")
	_ = jobsSubmitCmd.MarkFlagRequired("type")
	_ = jobsSubmitCmd.MarkFlagRequired("start")
	_ = jobsSubmitCmd.MarkFlagRequired("end")

	jobsListCmd.Flags().StringVar(&jobListStatus, "status", "", "Filter by status")
	jobsListCmd.Flags().StringVar(&jobListType, "type", "", "Filter by job type")
	jobsListCmd.Flags().IntVar(&jobListLimit, "limit", 0, "Maximum rows")

	jobsCmd.AddCommand(jobsSubmitCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}
