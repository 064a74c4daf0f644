package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

func textBlock(id string, order int, text string) docmodel.Block {
	return docmodel.Block{
		ID:         id,
		DocID:      "doc-1",
		PageNumber: 0,
		BlockOrder: order,
		Kind:       docmodel.KindText,
		Text:       text,
		Words:      []docmodel.Word{{Start: 0, End: len(text), Text: text, FontSize: 12, Color: "#000000"}},
		StyleRuns:  []docmodel.StyleRun{{Start: 0, End: len(text), FontSize: 12, Font: "Helvetica", Color: "#000000"}},
		Position:   docmodel.BBox{72, 72 + float64(order)*20, 300, 84 + float64(order)*20},
	}
}

func sampleDoc() *docmodel.Document {
	return &docmodel.Document{
		ID:            "doc-1",
		OwnerID:       "alice",
		Title:         "Report",
		Filename:      "report.pdf",
		PageCount:     2,
		ContentHash:   "abc123",
		Outline:       []docmodel.OutlineEntry{{Level: 1, Title: "Intro", Page: 1}},
		OutlineSource: docmodel.OutlineNative,
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Data:          []byte("%PDF-1.4"),
		Blocks: []docmodel.Block{
			textBlock("b0", 0, "Intro"),
			textBlock("b1", 1, "Second"),
			{
				ID: "img", DocID: "doc-1", PageNumber: 0, BlockOrder: 2, Kind: docmodel.KindImage,
				ImagePath: "/api/images/img", Image: []byte{0xff, 0xd8, 0xff},
				Words: []docmodel.Word{}, StyleRuns: []docmodel.StyleRun{},
			},
			{
				ID: "p1", DocID: "doc-1", PageNumber: 1, BlockOrder: 0, Kind: docmodel.KindText,
				Text: "Next page",
			},
		},
	}
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := OpenMemory(t)
	if err := s.CreateDocument(context.Background(), sampleDoc()); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	return s
}

func TestCreateAndGetDocument(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	doc, err := s.GetDocument(ctx, "alice", "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Title != "Report" || doc.PageCount != 2 || doc.Theme != "light" {
		t.Errorf("unexpected document %+v", doc)
	}
	if len(doc.Outline) != 1 || doc.Outline[0].Title != "Intro" {
		t.Errorf("expected outline to round-trip, got %v", doc.Outline)
	}
	if doc.OutlineSource != docmodel.OutlineNative {
		t.Errorf("expected native outline source, got %q", doc.OutlineSource)
	}
	if !doc.CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("expected created_at to round-trip, got %v", doc.CreatedAt)
	}
	if len(doc.Blocks) != 0 {
		t.Errorf("expected no blocks on the document header, got %d", len(doc.Blocks))
	}

	if _, err := s.GetDocument(ctx, "mallory", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for another owner, got %v", err)
	}
}

func TestCreateDocument_RollsBackOnBlockFailure(t *testing.T) {
	s := OpenMemory(t)
	doc := sampleDoc()
	// Duplicate (doc, page, order) violates the unique index.
	doc.Blocks[1].BlockOrder = 0

	if err := s.CreateDocument(context.Background(), doc); err == nil {
		t.Fatal("expected an error for duplicate block order")
	}
	if _, err := s.GetDocument(context.Background(), "alice", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected the document row to be rolled back, got %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	later := sampleDoc()
	later.ID = "doc-2"
	later.Title = "Later"
	later.CreatedAt = later.CreatedAt.Add(time.Hour)
	later.Blocks = nil
	if err := s.CreateDocument(ctx, later); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	docs, err := s.ListDocuments(ctx, "alice")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "doc-2" || docs[1].ID != "doc-1" {
		t.Errorf("expected [doc-2 doc-1], got %+v", docs)
	}

	none, err := s.ListDocuments(ctx, "bob")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", none)
	}
}

func TestFindByHashAndFile(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	doc, err := s.FindByHash(ctx, "alice", "abc123")
	if err != nil || doc.ID != "doc-1" {
		t.Fatalf("expected doc-1 by hash, got %v, %v", doc, err)
	}
	if _, err := s.FindByHash(ctx, "bob", "abc123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected hash lookup scoped to owner, got %v", err)
	}

	name, data, err := s.DocumentFile(ctx, "alice", "doc-1")
	if err != nil {
		t.Fatalf("DocumentFile: %v", err)
	}
	if name != "report.pdf" || string(data) != "%PDF-1.4" {
		t.Errorf("unexpected file %q %q", name, data)
	}
}

func TestUpdateDocument(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	theme := "dark"
	doc, err := s.UpdateDocument(ctx, "alice", "doc-1", DocumentUpdate{Theme: &theme})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if doc.Theme != "dark" || doc.Title != "Report" {
		t.Errorf("expected theme changed and title kept, got %+v", doc)
	}

	if _, err := s.UpdateDocument(ctx, "bob", "doc-1", DocumentUpdate{Theme: &theme}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for another owner, got %v", err)
	}
}

func TestDeleteDocument_Cascades(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	a := &docmodel.Annotation{ID: "a1", DocID: "doc-1", BlockID: "b0", UserID: "alice", CreatedAt: time.Now()}
	if err := s.CreateAnnotation(ctx, a); err != nil {
		t.Fatalf("CreateAnnotation: %v", err)
	}

	if err := s.DeleteDocument(ctx, "alice", "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	blocks, err := s.ListBlocks(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListBlocks: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected blocks to cascade, got %d", len(blocks))
	}
	anns, err := s.ListAnnotations(ctx, "doc-1", "alice")
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if len(anns) != 0 {
		t.Errorf("expected annotations to cascade, got %d", len(anns))
	}
	if err := s.DeleteDocument(ctx, "alice", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestBlocks_ListPageGet(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	all, err := s.ListBlocks(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListBlocks: %v", err)
	}
	wantIDs := []string{"b0", "b1", "img", "p1"}
	if len(all) != len(wantIDs) {
		t.Fatalf("expected %d blocks, got %d", len(wantIDs), len(all))
	}
	for i, id := range wantIDs {
		if all[i].ID != id {
			t.Errorf("block %d: expected %s, got %s", i, id, all[i].ID)
		}
	}

	page1, err := s.PageBlocks(ctx, "doc-1", 1)
	if err != nil {
		t.Fatalf("PageBlocks: %v", err)
	}
	if len(page1) != 1 || page1[0].ID != "p1" {
		t.Errorf("expected only p1 on page 1, got %+v", page1)
	}
	if page1[0].Words == nil || page1[0].StyleRuns == nil {
		t.Error("expected nil word and run slices to be stored as empty arrays")
	}

	b, err := s.GetBlock(ctx, "doc-1", "b1")
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if b.Text != "Second" || len(b.Words) != 1 || b.Words[0].Text != "Second" {
		t.Errorf("unexpected block %+v", b)
	}
	if b.Position != (docmodel.BBox{72, 92, 300, 104}) {
		t.Errorf("expected position to round-trip, got %v", b.Position)
	}
	if _, err := s.GetBlock(ctx, "other-doc", "b1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong document, got %v", err)
	}
}

func TestBlockImage(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	data, err := s.BlockImage(ctx, "alice", "img")
	if err != nil {
		t.Fatalf("BlockImage: %v", err)
	}
	if len(data) != 3 || data[0] != 0xff {
		t.Errorf("unexpected image bytes %v", data)
	}
	if _, err := s.BlockImage(ctx, "bob", "img"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for another owner, got %v", err)
	}
	if _, err := s.BlockImage(ctx, "alice", "b0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a text block, got %v", err)
	}
}

func TestApplySplit_ShiftsSiblings(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	updated := textBlock("b0", 0, "In")
	created := textBlock("new", 1, "tro")

	if err := s.ApplySplit(ctx, updated, created); err != nil {
		t.Fatalf("ApplySplit: %v", err)
	}

	blocks, err := s.PageBlocks(ctx, "doc-1", 0)
	if err != nil {
		t.Fatalf("PageBlocks: %v", err)
	}
	want := []struct {
		id    string
		order int
		text  string
	}{
		{"b0", 0, "In"},
		{"new", 1, "tro"},
		{"b1", 2, "Second"},
		{"img", 3, ""},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, w := range want {
		b := blocks[i]
		if b.ID != w.id || b.BlockOrder != w.order || b.Text != w.text {
			t.Errorf("block %d: expected %s@%d %q, got %s@%d %q", i, w.id, w.order, w.text, b.ID, b.BlockOrder, b.Text)
		}
	}

	other, err := s.PageBlocks(ctx, "doc-1", 1)
	if err != nil {
		t.Fatalf("PageBlocks: %v", err)
	}
	if other[0].BlockOrder != 0 {
		t.Errorf("expected other pages untouched, got order %d", other[0].BlockOrder)
	}
}

func TestApplySplit_MissingOriginalRollsBack(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.ApplySplit(ctx, textBlock("ghost", 0, "x"), textBlock("new", 1, "y"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	b, err := s.GetBlock(ctx, "doc-1", "b1")
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if b.BlockOrder != 1 {
		t.Errorf("expected sibling shift to roll back, got order %d", b.BlockOrder)
	}
}

func TestAnnotations_Visibility(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	now := time.Now()

	anns := []*docmodel.Annotation{
		{ID: "mine", DocID: "doc-1", BlockID: "b0", EndWordIndex: 1, UserID: "alice", CreatedAt: now},
		{ID: "shared", DocID: "doc-1", BlockID: "b0", UserID: "bob", IsShared: true, CreatedAt: now.Add(time.Second)},
		{ID: "private", DocID: "doc-1", BlockID: "b1", UserID: "bob", CreatedAt: now.Add(2 * time.Second)},
	}
	for _, a := range anns {
		if err := s.CreateAnnotation(ctx, a); err != nil {
			t.Fatalf("CreateAnnotation %s: %v", a.ID, err)
		}
	}
	if anns[0].Type != "highlight" || anns[0].Color != "#ffeb3b" {
		t.Errorf("expected defaults applied, got %q %q", anns[0].Type, anns[0].Color)
	}

	got, err := s.ListAnnotations(ctx, "doc-1", "alice")
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if len(got) != 2 || got[0].ID != "mine" || got[1].ID != "shared" {
		t.Errorf("expected [mine shared], got %+v", got)
	}
	if !got[1].IsShared {
		t.Error("expected is_shared to round-trip")
	}
}

func TestAnnotations_UpdateDelete(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	a := &docmodel.Annotation{ID: "a1", DocID: "doc-1", BlockID: "b0", UserID: "alice", Note: "old", CreatedAt: time.Now()}
	if err := s.CreateAnnotation(ctx, a); err != nil {
		t.Fatalf("CreateAnnotation: %v", err)
	}

	color := "#00ff00"
	got, err := s.UpdateAnnotation(ctx, "alice", "a1", AnnotationUpdate{Color: &color})
	if err != nil {
		t.Fatalf("UpdateAnnotation: %v", err)
	}
	if got.Color != color || got.Note != "old" {
		t.Errorf("expected color changed and note kept, got %+v", got)
	}

	if _, err := s.UpdateAnnotation(ctx, "bob", "a1", AnnotationUpdate{Color: &color}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating another user's annotation, got %v", err)
	}
	if err := s.DeleteAnnotation(ctx, "bob", "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting another user's annotation, got %v", err)
	}
	if err := s.DeleteAnnotation(ctx, "alice", "a1"); err != nil {
		t.Errorf("DeleteAnnotation: %v", err)
	}
}

func TestIsBusy(t *testing.T) {
	cases := map[string]bool{
		"SQLITE_BUSY":                 true,
		"database is locked (5)":      true,
		"database table is locked":    true,
		"UNIQUE constraint failed: x": false,
	}
	for msg, want := range cases {
		if got := IsBusy(errors.New(msg)); got != want {
			t.Errorf("IsBusy(%q): expected %v, got %v", msg, want, got)
		}
	}
	if IsBusy(nil) {
		t.Error("expected IsBusy(nil) to be false")
	}
}
