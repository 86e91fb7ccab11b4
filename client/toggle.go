package client

import (
	"context"
	"net/http"
	"net/url"
)

// toggleRequest is the JSON body of a toggle call.
type toggleRequest struct {
	Attribute string  `json:"attribute"`
	LabelKey  *string `json:"labelKey,omitempty"`
}

// Toggle flips attribute on the record id of resource and returns the new value.
// labelKey names the attribute used for the returned label; "" leaves it unset.
func (c *Client) Toggle(ctx context.Context, resource, id, attribute, labelKey string) (*ToggleResult, error) {
	body := toggleRequest{Attribute: attribute}
	if labelKey != "" {
		body.LabelKey = &labelKey
	}

	var res ToggleResult
	path := "/api/v1/toggle/" + url.PathEscape(resource) + "/" + url.PathEscape(id)
	if err := c.send(ctx, call{method: http.MethodPost, path: path, body: body}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Field returns the presenter descriptor of attribute on one record, as seen
// by the authenticated caller.
func (c *Client) Field(ctx context.Context, resource, id, attribute string) (*FieldDescriptor, error) {
	var d FieldDescriptor
	path := "/api/v1/fields/" + url.PathEscape(resource) + "/" + url.PathEscape(id) + "/" + url.PathEscape(attribute)
	if err := c.send(ctx, call{method: http.MethodGet, path: path}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
