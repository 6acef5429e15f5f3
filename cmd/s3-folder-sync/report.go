package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/inventory"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/planner"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/syncer"
)

// PlanResult represents the planned operations before execution
type PlanResult struct {
	Files   []PlanFile  `json:"files"`
	Summary PlanSummary `json:"summary"`
}

// PlanFile is one planned operation
type PlanFile struct {
	Action string `json:"action"` // "create", "compare", "delete", "keep"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// PlanSummary counts planned operations by action
type PlanSummary struct {
	Create  int `json:"create"`
	Compare int `json:"compare"`
	Delete  int `json:"delete"`
	Keep    int `json:"keep"`
}

// SyncResult represents the actual execution results
type SyncResult struct {
	Bucket  string        `json:"bucket"`
	DryRun  bool          `json:"dryrun"`
	Files   []ResultFile  `json:"files"`
	Summary ResultSummary `json:"summary"`
}

// ResultFile is one applied operation
type ResultFile struct {
	Action string `json:"action"` // "created", "updated", "deleted", "skipped"
	Target string `json:"target"`
}

// ResultSummary counts applied operations by action
type ResultSummary struct {
	Created       int   `json:"created"`
	Updated       int   `json:"updated"`
	Deleted       int   `json:"deleted"`
	Skipped       int   `json:"skipped"`
	BytesUploaded int64 `json:"bytes_uploaded"`
}

func newPlanResult(bucket, prefix string, allowDeletes bool, plan planner.Plan) PlanResult {
	result := PlanResult{Files: []PlanFile{}}

	for _, item := range plan.ToAdd {
		result.Files = append(result.Files, PlanFile{
			Action: "create",
			Source: item.Source,
			Target: formatS3Path(bucket, inventory.ObjectKey(prefix, item.RelativePath)),
			Reason: "new file",
		})
		result.Summary.Create++
	}

	for _, pair := range plan.ToCompare {
		result.Files = append(result.Files, PlanFile{
			Action: "compare",
			Source: pair.LocalPath,
			Target: formatS3Path(bucket, pair.RemoteKey),
			Reason: "exists on both sides",
		})
		result.Summary.Compare++
	}

	for _, item := range plan.ToRemove {
		file := PlanFile{
			Action: "delete",
			Target: formatS3Path(bucket, item.Source),
			Reason: "not in source",
		}
		if !allowDeletes {
			file.Action = "keep"
			file.Reason = "not in source, deletes disabled"
			result.Summary.Keep++
		} else {
			result.Summary.Delete++
		}
		result.Files = append(result.Files, file)
	}

	return result
}

func newSyncResult(resp *syncer.Response, dryRun bool) SyncResult {
	result := SyncResult{
		Bucket: resp.Bucket,
		DryRun: dryRun,
		Files:  []ResultFile{},
		Summary: ResultSummary{
			Created:       len(resp.AddedKeys),
			Updated:       len(resp.ModifiedKeys),
			Deleted:       len(resp.DeletedKeys),
			Skipped:       len(resp.SkippedKeys),
			BytesUploaded: resp.BytesUploaded,
		},
	}

	add := func(action string, keys []string) {
		for _, key := range keys {
			result.Files = append(result.Files, ResultFile{
				Action: action,
				Target: formatS3Path(resp.Bucket, key),
			})
		}
	}
	add("created", resp.AddedKeys)
	add("updated", resp.ModifiedKeys)
	add("deleted", resp.DeletedKeys)
	add("skipped", resp.SkippedKeys)

	return result
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func formatS3Path(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
