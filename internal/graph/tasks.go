package graph

import (
	"context"
	"fmt"
	"net/url"

	"smsbridge/internal/model"
)

type todoTask struct {
	Title string `json:"title"`
}

type createdTask struct {
	ID string `json:"id"`
}

type taskFileAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type taskListPage struct {
	Value []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"value"`
}

// CreateTask creates one to-do task and returns its ID.
func (c *Client) CreateTask(ctx context.Context, listID, title string) (string, error) {
	var created createdTask
	path := c.userPath("/todo/lists/" + url.PathEscape(listID) + "/tasks")
	if err := c.post(ctx, "tasks.create", path, todoTask{Title: title}, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("task created without an id (list %s)", listID)
	}
	return created.ID, nil
}

// AttachFile uploads one file attachment onto an existing task.
func (c *Client) AttachFile(ctx context.Context, listID, taskID string, f model.FileAttachment) error {
	body := taskFileAttachment{
		ODataType:    "#microsoft.graph.taskFileAttachment",
		Name:         f.Name,
		ContentType:  f.ContentType,
		ContentBytes: f.ContentBytes,
	}
	path := c.userPath("/todo/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(taskID) + "/attachments")
	return c.post(ctx, "tasks.attach", path, body, nil)
}

// ListTaskLists returns the user's to-do lists. Diagnostic only.
func (c *Client) ListTaskLists(ctx context.Context) ([]model.TaskList, error) {
	var page taskListPage
	if err := c.get(ctx, "lists.list", c.userPath("/todo/lists"), nil, &page); err != nil {
		return nil, err
	}

	lists := make([]model.TaskList, 0, len(page.Value))
	for _, l := range page.Value {
		lists = append(lists, model.TaskList{ID: l.ID, DisplayName: l.DisplayName})
	}
	return lists, nil
}
