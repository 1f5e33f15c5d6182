// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph provides read-only access to a Microsoft Graph mailbox.
// It exposes the minimal surface the pipeline needs: folder listing,
// message listing scoped to one folder, and attachment download. The
// Source interface lets tests substitute a fake mailbox.
package graph

import (
	"context"
	"time"
)

// Folder is one mail folder node.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"displayName"`
	Children int    `json:"childFolderCount"`

	// FullName is the slash-joined path from the mailbox root, filled in
	// by ListTree.
	FullName string `json:"-"`
	// Level is the folder's depth in the tree, 0 for top-level folders.
	Level int `json:"-"`
}

// Message is one mail message with attachment metadata still unfetched.
type Message struct {
	ID          string
	Subject     string
	ReceivedAt  time.Time
	SenderName  string
	SenderEmail string
}

// Attachment is one file attachment's metadata. The declared size is not
// trusted for policy decisions on downloaded content; it only pre-filters
// obviously oversized files before download.
type Attachment struct {
	ID   string
	Name string
	Size int64
}

// Source is the mail access boundary consumed by the ingest stage. Every
// listing call is bound to an explicit folder ID; there is no operation
// that enumerates the whole mailbox's messages.
type Source interface {
	// ChildFolders lists the immediate subfolders of folderID.
	ChildFolders(ctx context.Context, folderID string) ([]Folder, error)

	// Messages lists messages in folderID that carry attachments and were
	// received at or after since.
	Messages(ctx context.Context, folderID string, since time.Time) ([]Message, error)

	// Attachments lists attachment metadata for one message.
	Attachments(ctx context.Context, messageID string) ([]Attachment, error)

	// Download fetches one attachment's raw bytes.
	Download(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}
