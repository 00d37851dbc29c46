package itflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Document endpoints.
const (
	EndpointDocumentCreate = "/documents/create.php"
	EndpointDocumentUpdate = "/documents/update.php"
	EndpointFolderCreate   = "/document_folders/create.php"
	EndpointFolderRead     = "/document_folders/read.php"
)

// DocumentUpdate is a change to an existing ITFlow document.
type DocumentUpdate struct {
	DocumentID  int64  `json:"documentId"`
	Name        string `json:"name,omitempty"`
	Content     string `json:"content,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateDocumentInput holds parameters for CreateDocument.
type CreateDocumentInput struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	FolderID    int64  `json:"folderId,omitempty"`
}

// ParseDocumentID validates a configured document id. Surrounding whitespace
// is ignored. The result is always a positive integer when err is nil.
func ParseDocumentID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("document_id is required")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("Invalid document_id: %s", raw)
	}
	return id, nil
}

// UpdateDocument replaces fields of an existing document. A non-positive id
// fails locally without contacting the remote.
func (c *Client) UpdateDocument(ctx context.Context, in DocumentUpdate) *Envelope {
	if in.DocumentID == 0 {
		return Failure("document_id is required")
	}
	if in.DocumentID < 0 {
		return Failure(fmt.Sprintf("Invalid document_id: %d", in.DocumentID))
	}

	params := map[string]any{
		"document_id": strconv.FormatInt(in.DocumentID, 10),
		"client_id":   c.clientID,
	}
	setIf(params, "document_name", in.Name)
	setIf(params, "document_description", in.Description)
	setIf(params, "document_content", in.Content)
	return c.post(ctx, EndpointDocumentUpdate, params)
}

// CreateDocument creates a document, optionally inside a folder.
func (c *Client) CreateDocument(ctx context.Context, in CreateDocumentInput) *Envelope {
	params := c.withClient(map[string]any{
		"document_name":    in.Name,
		"document_content": in.Content,
	})
	setIf(params, "document_description", in.Description)
	setIfPositive(params, "folder", in.FolderID)
	return c.post(ctx, EndpointDocumentCreate, params)
}

// CreateDocumentFolder creates a folder under parentID (0 for the root).
func (c *Client) CreateDocumentFolder(ctx context.Context, name string, parentID int64) *Envelope {
	return c.post(ctx, EndpointFolderCreate, c.withClient(map[string]any{
		"name":   name,
		"parent": parentID,
	}))
}

// GetDocumentFolders lists the account's document folders.
func (c *Client) GetDocumentFolders(ctx context.Context) *Envelope {
	return c.get(ctx, EndpointFolderRead, c.withClient(nil))
}
