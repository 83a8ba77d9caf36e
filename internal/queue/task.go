package queue

import (
	"encoding/json"
	"fmt"
)

type TaskType string

const (
	// TaskIngest renders the thumbnail of one freshly uploaded object.
	TaskIngest TaskType = "ingest"
	// TaskBackfill renders every thumbnail still missing.
	TaskBackfill TaskType = "backfill"
)

type Task struct {
	Type    TaskType `json:"type"`
	PhotoID string   `json:"photoId,omitempty"`
	Bucket  string   `json:"bucket,omitempty"`
	Object  string   `json:"object,omitempty"`
}

// Values flattens the task into stream fields, skipping empty ones.
func (t Task) Values() map[string]any {
	values := map[string]any{"type": string(t.Type)}
	if t.PhotoID != "" {
		values["photoId"] = t.PhotoID
	}
	if t.Bucket != "" {
		values["bucket"] = t.Bucket
	}
	if t.Object != "" {
		values["object"] = t.Object
	}
	return values
}

func DecodeTask(values map[string]any) (Task, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Task{}, fmt.Errorf("marshal values: %w", err)
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return Task{}, fmt.Errorf("unmarshal task: %w", err)
	}
	if task.Type == "" {
		return Task{}, fmt.Errorf("task without type")
	}
	return task, nil
}
