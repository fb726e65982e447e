package student

import (
	"context"
	"net/url"

	rosterhttp "github.com/leg100/roster/internal/http"
)

// Client accesses students over http.
type Client struct {
	*rosterhttp.Client
}

func studentPath(id string) string {
	return "students/" + url.PathEscape(id)
}

func (c *Client) Create(ctx context.Context, id string, opts Options) error {
	req, err := c.NewRequest("POST", studentPath(id), &opts)
	if err != nil {
		return err
	}
	return c.Do(ctx, req, &MessageResponse{})
}

func (c *Client) Get(ctx context.Context, id string) (*Student, error) {
	req, err := c.NewRequest("GET", studentPath(id), nil)
	if err != nil {
		return nil, err
	}
	student := &Student{}
	if err := c.Do(ctx, req, student); err != nil {
		return nil, err
	}
	student.ID = id
	if student.Skills == nil {
		student.Skills = []string{}
	}
	return student, nil
}

func (c *Client) Update(ctx context.Context, id string, opts Options) error {
	req, err := c.NewRequest("PUT", studentPath(id), &opts)
	if err != nil {
		return err
	}
	return c.Do(ctx, req, &MessageResponse{})
}

func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.NewRequest("DELETE", studentPath(id), nil)
	if err != nil {
		return err
	}
	return c.Do(ctx, req, &MessageResponse{})
}
