// Package api is the CLI's client of the Wordbook HTTP API.
//
// Authenticated calls read the access token from a TokenStore. When the
// server reports an expired access token the client rotates the pair with
// the refresh token once, stores the new pair and repeats the call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/gabriel-vasile/mimetype"
)

// TokenPair is the answer of sign-in and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenStore holds the tokens of the signed-in user.
type TokenStore interface {
	Tokens() (access, refresh string)
	SetTokens(ctx context.Context, pair TokenPair) error
}

// File is a local file prepared for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadFile loads path and sniffs its content type.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetTokenStore attaches the store used by authenticated calls.
func (c *Client) SetTokenStore(ts TokenStore) {
	c.tokens = ts
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	auth        bool
}

func jsonRequest(method, path string, in any, auth bool) (request, error) {
	r := request{method: method, path: path, auth: auth}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return r, err
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *Client) send(ctx context.Context, r request, access string) (*http.Response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, bytes.NewReader(r.body))
	if err != nil {
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if access != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+access)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// do runs r and decodes a 2xx JSON body into out when out is not nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	access, refresh := "", ""
	if r.auth && c.tokens != nil {
		access, refresh = c.tokens.Tokens()
	}

	resp, err := c.send(ctx, r, access)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := decodeError(resp)
		if !r.auth || refresh == "" || !errors.Is(err, common.ErrTokenExpired) {
			return err
		}

		pair, rerr := c.Refresh(ctx, refresh)
		if rerr != nil {
			return fmt.Errorf("refresh session: %w", rerr)
		}
		if rerr := c.tokens.SetTokens(ctx, *pair); rerr != nil {
			return rerr
		}

		resp.Body.Close()
		resp, err = c.send(ctx, r, pair.AccessToken)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return decodeError(resp)
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, auth bool) error {
	r, err := jsonRequest(method, path, in, auth)
	if err != nil {
		return err
	}
	return c.do(ctx, r, out)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", credentials{email, password}, &u, false); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", credentials{email, password}, &pair, false); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", refreshRequest{refreshToken}, &pair, false); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/signout", refreshRequest{refreshToken}, nil, false)
}

// Me returns the user the stored access token belongs to.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListEntries(ctx context.Context, opts models.ListOptions) ([]*models.Entry, error) {
	q := url.Values{}
	if opts.Order != "" {
		q.Set("sort", string(opts.Order))
	}
	if opts.Term != "" {
		q.Set("q", opts.Term)
	}
	var list []*models.Entry
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/entries", query: q, auth: true}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Fetch lists every entry in the given order.
func (c *Client) Fetch(ctx context.Context, order models.SortOrder) ([]*models.Entry, error) {
	return c.ListEntries(ctx, models.ListOptions{Order: order})
}

func (c *Client) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	var e models.Entry
	if err := c.doJSON(ctx, http.MethodGet, "/api/entries/"+url.PathEscape(id), nil, &e, true); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) CreateEntry(ctx context.Context, draft models.Draft) (*models.Entry, error) {
	var e models.Entry
	if err := c.doJSON(ctx, http.MethodPost, "/api/entries", draft, &e, true); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEntry(ctx context.Context, id string, patch models.Patch) (*models.Entry, error) {
	var e models.Entry
	if err := c.doJSON(ctx, http.MethodPatch, "/api/entries/"+url.PathEscape(id), patch, &e, true); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEntry removes an entry. Callers confirm with the user first; the
// request always carries the confirmation.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	q := url.Values{"confirm": []string{"true"}}
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/entries/" + url.PathEscape(id), query: q, auth: true}, nil)
}

func multipartBody(files []File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		h.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *Client) upload(ctx context.Context, path string, files []File, out any) error {
	body, contentType, err := multipartBody(files)
	if err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body, contentType: contentType, auth: true}, out)
}

// UploadMedia stores files without attaching them to any entry.
func (c *Client) UploadMedia(ctx context.Context, files []File) ([]models.Media, error) {
	var out struct {
		Media []models.Media `json:"media"`
	}
	if err := c.upload(ctx, "/api/media", files, &out); err != nil {
		return nil, err
	}
	return out.Media, nil
}

// AttachMedia uploads files and appends them to the entry's media.
func (c *Client) AttachMedia(ctx context.Context, id string, files []File) (*models.Entry, error) {
	var e models.Entry
	if err := c.upload(ctx, "/api/entries/"+url.PathEscape(id)+"/media", files, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) RemoveMedia(ctx context.Context, mediaURL string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/media", map[string]string{"url": mediaURL}, nil, true)
}
