package repository

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
)

// DocumentParams describe a verified document.
type DocumentParams struct {
	Type           string `json:"document_type"`
	Name           string `json:"document_name"`
	TimestampProof string `json:"timestamp_proof"`
}

// SaveDocument hashes the content, seals it into the vault and persists the document.
// Saving the same content twice in a namespace returns the existing document.
func (r *Repository) SaveDocument(ctx context.Context, namespace string, params DocumentParams, content io.Reader) (*model.Document, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	if strings.TrimSpace(params.Type) == "" {
		return nil, sherror.Validation("document type must not be blank")
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, sherror.Validation("document name must not be blank")
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxBlobSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "could not read content")
	}
	hash := Fingerprint(data)

	existing, err := r.db.FindDocumentByHash(hash, namespace)
	if err == nil {
		return existing, nil
	}
	if !r.db.IsNotFound(err) {
		return nil, sherror.Storage(err, "get document")
	}

	ref, size, err := r.writeBlob(namespace, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	document := &model.Document{
		UserID:         namespace,
		Type:           params.Type,
		Name:           params.Name,
		SHA256Hash:     hash,
		FileRef:        ref,
		FileSize:       size,
		TimestampProof: params.TimestampProof,
	}

	if err = r.save(document, "persist document"); err != nil {
		if rerr := r.vault.Remove(ref); rerr != nil {
			r.log.WithError(rerr).Warn("could not remove orphan blob")
		}
		return nil, err
	}
	return document, nil
}

// Document returns the document as stored.
func (r *Repository) Document(ctx context.Context, namespace, id string) (*model.Document, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	document, err := r.db.FindDocument(id, namespace)
	if err != nil {
		return nil, r.fail(err, "document", "get document")
	}
	return document, nil
}

// Documents returns the documents of the namespace, newest first.
func (r *Repository) Documents(ctx context.Context, namespace string) ([]*model.Document, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	documents, err := r.db.FindDocumentsByUserID(namespace)
	if err != nil {
		return nil, sherror.Storage(err, "list documents")
	}
	return documents, nil
}

// ReadDocument returns the decrypted original of the document.
// The content must still match the recorded hash.
func (r *Repository) ReadDocument(ctx context.Context, namespace, id string) (*model.Document, []byte, error) {
	document, err := r.Document(ctx, namespace, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := r.readBlob(namespace, document.FileRef)
	if err != nil {
		return nil, nil, err
	}

	if Fingerprint(data) != document.SHA256Hash {
		return nil, nil, sherror.Crypto(errors.New("document integrity check failed"))
	}
	return document, data, nil
}

// VerifyDocument returns true if the given content matches the document hash.
func (r *Repository) VerifyDocument(ctx context.Context, namespace, id string, content io.Reader) (bool, error) {
	document, err := r.Document(ctx, namespace, id)
	if err != nil {
		return false, err
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxBlobSize+1))
	if err != nil {
		return false, errors.Wrap(err, "could not read content")
	}
	return Fingerprint(data) == document.SHA256Hash, nil
}

// DeleteDocument deletes the document original and its record.
func (r *Repository) DeleteDocument(ctx context.Context, namespace, id string) error {
	document, err := r.Document(ctx, namespace, id)
	if err != nil {
		if sherror.IsNotFound(err) {
			return nil
		}
		return err
	}
	return r.deleteDocument(document)
}

// WatchDocuments returns a live view of the documents of the namespace.
func (r *Repository) WatchDocuments(ctx context.Context, namespace string) (<-chan []*model.Document, error) {
	return watch(ctx, r, database.TopicDocument, func() ([]*model.Document, error) {
		return r.Documents(ctx, namespace)
	})
}

func (r *Repository) deleteDocument(document *model.Document) error {
	if err := r.vault.Remove(document.FileRef); err != nil {
		return sherror.Storage(err, "delete document file")
	}
	return r.fail(r.db.DeleteDocument(document.ID, document.UserID), "document", "delete document")
}

// Fingerprint returns the hex encoded SHA-256 of the given content.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
