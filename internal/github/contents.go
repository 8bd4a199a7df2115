package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

// contentFile is the subset of a contents API file descriptor we read.
type contentFile struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putContentResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// ReadShard fetches the shard at path on branch.
//
// A missing file is not an error: it returns (nil, "", nil) so the caller
// creates it. A file that exists but is not a valid shard is an error, to
// avoid overwriting data we could not read.
func (c *Client) ReadShard(ctx context.Context, auth, owner, repo, path, branch string) (*domain.Shard, string, error) {
	var file contentFile
	err := c.do(ctx, http.MethodGet, contentsPath(owner, repo, path)+"?ref="+url.QueryEscape(branch), auth, nil, &file)
	if err != nil {
		if IsNotFound(err) {
			c.log.Debug("shard absent, will create", logger.String("path", path))
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	if file.Type != "" && file.Type != "file" {
		return nil, "", fmt.Errorf("failed to read %s: not a file (%s)", path, file.Type)
	}

	raw, err := DecodeContent(file.Content)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", path, err)
	}

	var shard domain.Shard
	if err := json.Unmarshal(raw, &shard); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &shard, file.SHA, nil
}

// WriteShard creates or updates the shard at path. When sha is empty the
// field is omitted and GitHub creates the file; otherwise the write only
// succeeds if the remote file still has that sha, and a mismatch comes back
// as a *domain.ConflictError. It returns the new blob sha.
func (c *Client) WriteShard(ctx context.Context, auth, owner, repo, path, branch string, shard domain.Shard, sha, message string) (string, error) {
	payload, err := shard.MarshalPretty()
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}

	req := putContentRequest{
		Message: message,
		Content: EncodeContent(payload),
		Branch:  branch,
		SHA:     sha,
	}

	var resp putContentResponse
	if err := c.do(ctx, http.MethodPut, contentsPath(owner, repo, path), auth, req, &resp); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			conflict.Path = path
		}
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return resp.Content.SHA, nil
}

// EncodeContent base64-encodes raw bytes for the contents API. Go strings and
// byte slices are already UTF-8, so multi-byte text survives unchanged.
func EncodeContent(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeContent reverses EncodeContent. GitHub wraps the base64 it returns
// at 60 columns, so line breaks are removed first.
func DecodeContent(encoded string) ([]byte, error) {
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(encoded)
	return base64.StdEncoding.DecodeString(cleaned)
}

func contentsPath(owner, repo, path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), strings.Join(segments, "/"))
}
