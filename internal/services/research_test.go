package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/domain/research"
)

func TestInterviewNotesLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{canvas.FieldProblem: "X"})

	note, err := f.research.CreateInterviewNote(ctx, CreateInterviewNoteInput{
		ProjectID:       res.Project.ID,
		UserID:          owner.ID,
		IntervieweeName: " Hana ",
		InterviewDate:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		InterviewType:   research.InterviewDeepDive,
		InterviewNote:   "Buys bread daily",
	})
	require.NoError(t, err)
	require.Equal(t, "Hana", note.IntervieweeName)
	require.NotNil(t, note.EditID)
	require.Equal(t, res.Version.EditID, *note.EditID)

	got, err := f.research.GetInterviewNote(ctx, res.Project.ID, note.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "Buys bread daily", got.InterviewNote)

	list, err := f.research.ListInterviewNotes(ctx, res.Project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.research.DeleteInterviewNote(ctx, res.Project.ID, note.ID, owner.ID))
	err = f.research.DeleteInterviewNote(ctx, res.Project.ID, note.ID, owner.ID)
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.research.GetInterviewNote(ctx, res.Project.ID, note.ID, owner.ID)
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestInterviewNoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{})

	_, err := f.research.CreateInterviewNote(ctx, CreateInterviewNoteInput{
		ProjectID:       res.Project.ID,
		UserID:          owner.ID,
		IntervieweeName: "Hana",
		InterviewDate:   time.Now(),
		InterviewType:   "survey",
		InterviewNote:   "n",
	})
	requireCode(t, err, domainagg.CodeValidation)

	_, err = f.research.CreateInterviewNote(ctx, CreateInterviewNoteInput{
		ProjectID:     res.Project.ID,
		UserID:        owner.ID,
		InterviewDate: time.Now(),
		InterviewType: research.InterviewHypothesisTesting,
		InterviewNote: "n",
	})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestArtifactsAreMembershipGated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	stranger := f.user(t, "stranger")
	res := f.project(t, owner.ID, canvas.Fields{})

	_, err := f.research.CreateDocument(ctx, CreateDocumentInput{
		ProjectID:  res.Project.ID,
		UserID:     stranger.ID,
		FileName:   "x.txt",
		SourceType: research.SourceCompany,
	})
	requireCode(t, err, domainagg.CodeForbidden)

	_, err = f.research.ListDocuments(ctx, res.Project.ID, stranger.ID)
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.research.ListInterviewNotes(ctx, res.Project.ID, stranger.ID)
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.research.ListResearchResults(ctx, res.Project.ID, stranger.ID)
	requireCode(t, err, domainagg.CodeForbidden)
	err = f.research.DeleteResearchResult(ctx, res.Project.ID, 1, stranger.ID)
	requireCode(t, err, domainagg.CodeForbidden)
}

func TestDocumentsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{})

	_, err := f.research.CreateDocument(ctx, CreateDocumentInput{
		ProjectID:  res.Project.ID,
		UserID:     owner.ID,
		FileName:   "report.pdf",
		SourceType: "Blog",
	})
	requireCode(t, err, domainagg.CodeValidation)

	doc, err := f.research.CreateDocument(ctx, CreateDocumentInput{
		ProjectID:   res.Project.ID,
		UserID:      owner.ID,
		FileName:    "report.pdf",
		SourceType:  research.SourceCompetitor,
		ContentText: "Competitor opens at 6am",
	})
	require.NoError(t, err)

	docs, err := f.research.ListDocuments(ctx, res.Project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, research.SourceCompetitor, docs[0].SourceType)

	require.NoError(t, f.research.DeleteDocument(ctx, res.Project.ID, doc.ID, owner.ID))
	err = f.research.DeleteDocument(ctx, res.Project.ID, doc.ID, owner.ID)
	requireCode(t, err, domainagg.CodeNotFound)
}
