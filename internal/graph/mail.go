package graph

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"smsbridge/internal/model"
)

type emailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type graphMessage struct {
	ID               string    `json:"id"`
	Subject          string    `json:"subject"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	From             recipient `json:"from"`
}

type messagePage struct {
	Value []graphMessage `json:"value"`
}

type graphAttachment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type attachmentPage struct {
	Value []graphAttachment `json:"value"`
}

// FetchRecentMessages returns the limit most recent messages from the
// configured folder, newest first.
func (c *Client) FetchRecentMessages(ctx context.Context, limit int) ([]model.RawMessage, error) {
	query := url.Values{}
	query.Set("$select", "subject,from,receivedDateTime")
	query.Set("$top", strconv.Itoa(limit))
	query.Set("$orderby", "receivedDateTime DESC")

	var page messagePage
	path := c.userPath("/mailFolders/" + url.PathEscape(c.folder) + "/messages")
	if err := c.get(ctx, "messages.list", path, query, &page); err != nil {
		return nil, err
	}

	out := make([]model.RawMessage, 0, len(page.Value))
	for _, m := range page.Value {
		out = append(out, model.RawMessage{
			ID:            m.ID,
			SenderName:    m.From.EmailAddress.Name,
			SenderAddress: m.From.EmailAddress.Address,
			Subject:       m.Subject,
			ReceivedAt:    m.ReceivedDateTime,
		})
	}
	return out, nil
}

// FetchAttachments returns all attachment records of one message, with
// inline base64 content.
func (c *Client) FetchAttachments(ctx context.Context, messageID string) ([]model.RawAttachment, error) {
	var page attachmentPage
	path := c.userPath("/messages/" + url.PathEscape(messageID) + "/attachments")
	if err := c.get(ctx, "attachments.list", path, nil, &page); err != nil {
		return nil, err
	}

	out := make([]model.RawAttachment, 0, len(page.Value))
	for _, a := range page.Value {
		out = append(out, model.RawAttachment{
			ID:           a.ID,
			Name:         a.Name,
			ContentType:  a.ContentType,
			ContentBytes: a.ContentBytes,
		})
	}
	return out, nil
}

// FetchAttachmentContent returns the decoded bytes of one attachment.
func (c *Client) FetchAttachmentContent(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	attachments, err := c.FetchAttachments(ctx, messageID)
	if err != nil {
		return nil, err
	}
	for _, a := range attachments {
		if a.ID != attachmentID {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(a.ContentBytes)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: invalid base64 content: %w", attachmentID, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("attachment %s not found on message %s", attachmentID, messageID)
}

// User is the mailbox owner's identity, logged once at startup.
type User struct {
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// GetUser fetches the mailbox owner's identity.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	query := url.Values{}
	query.Set("$select", "displayName,mail,userPrincipalName")

	var user User
	if err := c.get(ctx, "user.get", c.userPath(""), query, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Email returns the user's address; personal accounts carry it in
// userPrincipalName rather than mail.
func (u *User) Email() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}
