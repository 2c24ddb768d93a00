package drive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	documentMime = "application/vnd.google-apps.document"
	folderMime   = "application/vnd.google-apps.folder"
	textMime     = "text/plain"
)

// Client converts images to text through Drive's document import: an image
// uploaded as a Google Doc is OCRed on the server side.
type Client struct {
	srv      *drive.Service
	folderID string
}

// New wraps an authorized HTTP client. Extra options are appended, which
// lets tests point the service at a local endpoint.
func New(ctx context.Context, httpClient *http.Client, folderID string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{srv: srv, folderID: folderID}, nil
}

// FolderID is the parent folder that receives converted documents.
func (c *Client) FolderID() string {
	return c.folderID
}

// EnsureFolder resolves the parent folder, creating one named name when no
// folder id was configured.
func (c *Client) EnsureFolder(ctx context.Context, name string) (string, error) {
	if c.folderID != "" {
		return c.folderID, nil
	}

	query := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMime, strings.ReplaceAll(name, "'", `\'`))
	r, err := c.srv.Files.List().Q(query).PageSize(1).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search folder: %w", err)
	}
	if len(r.Files) > 0 {
		c.folderID = r.Files[0].Id
		return c.folderID, nil
	}

	folder, err := c.srv.Files.Create(&drive.File{Name: name, MimeType: folderMime}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	c.folderID = folder.Id
	return c.folderID, nil
}

// Upload imports the image as a Google Doc and returns the remote id.
func (c *Client) Upload(ctx context.Context, imagePath string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:     filepath.Base(imagePath),
		MimeType: documentMime,
	}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}

	var media []googleapi.MediaOption
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(imagePath))); ct != "" {
		media = append(media, googleapi.ContentType(ct))
	}

	doc, err := c.srv.Files.Create(meta).Media(f, media...).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", meta.Name, err)
	}
	return doc.Id, nil
}

// Export downloads the converted document as plain text.
func (c *Client) Export(ctx context.Context, id string) ([]byte, error) {
	res, err := c.srv.Files.Export(id, textMime).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", id, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", id, err)
	}
	return body, nil
}

// Delete removes the converted document.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.srv.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}
