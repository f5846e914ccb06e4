// Package answer synthesizes cited answers from retrieved chunks.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/logger"
)

// NoContextAnswer is returned when retrieval finds nothing. No completion
// call is made in that case.
const NoContextAnswer = "I couldn't find any relevant information in the uploaded documents."

const previewLimit = 200

const systemPrompt = "You are a helpful assistant that answers questions based on provided document context. " +
	"Always cite your sources by mentioning the document name when referencing information."

const promptTemplate = `You are provided with context extracted from one or more uploaded documents.
Your task is to answer the following question clearly and precisely, using only the information found in the context.

Instructions:
- If the answer is available in the context, provide a direct, well-reasoned answer.
- You must cite **all the documents** provided in the context, regardless of whether they were directly used.
- Do **not** include any information that is not present in the context.
- If the answer cannot be found in the context, respond with: "The answer is not available in the provided context."

Context:
%s

Question: %s

Please provide a comprehensive answer based on the context above. In the end mention which document it comes from.`

// Service answers questions over the indexed corpus.
type Service struct {
	retriever Retriever
	messages  MessageWriter
	completer domain.Completer
	topK      int
}

func New(retriever Retriever, messages MessageWriter, completer domain.Completer, topK int) *Service {
	return &Service{retriever: retriever, messages: messages, completer: completer, topK: topK}
}

// Answer runs retrieval-augmented generation for one question. Each cited
// chunk leaves an audit message on the chat before the completion call, so
// provenance survives even if generation fails.
func (s *Service) Answer(ctx context.Context, chatID, question string) (domain.Answer, error) {
	log := logger.FromContext(ctx).With(zap.String("chat_id", chatID))

	retrieved, err := s.retriever.Search(ctx, question, s.topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	if len(retrieved) == 0 {
		log.Info("no relevant chunks found", zap.String("question", question))
		return domain.Answer{
			Answer:   NoContextAnswer,
			Sources:  []domain.Source{},
			Question: question,
		}, nil
	}

	contextParts := make([]string, 0, len(retrieved))
	sources := make([]domain.Source, 0, len(retrieved))

	for _, rc := range retrieved {
		contextParts = append(contextParts,
			fmt.Sprintf("Document: %s\nContent: %s\n", rc.Document.Filename, rc.Chunk.Content))

		source := domain.Source{
			DocumentName:   rc.Document.Filename,
			DocumentType:   string(rc.Document.FileType),
			DocumentPath:   rc.Document.FilePath,
			ChunkID:        rc.Chunk.ID,
			ChunkIndex:     rc.Chunk.ChunkIndex + 1, // shown 1-based
			StartChar:      rc.Chunk.StartChar,
			EndChar:        rc.Chunk.EndChar,
			CharacterRange: fmt.Sprintf("characters %d-%d", rc.Chunk.StartChar, rc.Chunk.EndChar),
			SimilarityScore: roundScore(rc.SimilarityScore),
			ContentPreview:  preview(rc.Chunk.Content),
		}
		sources = append(sources, source)

		if err := s.auditCitation(ctx, chatID, rc.Chunk.ID, source); err != nil {
			log.Warn("persist citation message", zap.Error(err))
		}
	}

	prompt := fmt.Sprintf(promptTemplate, strings.Join(contextParts, "\n---\n"), question)

	text, err := s.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.Answer{
		Answer:            text,
		Sources:           sources,
		Question:          question,
		TotalSourcesFound: len(retrieved),
	}, nil
}

// auditCitation records one cited chunk as an assistant message with the
// analyse task.
func (s *Service) auditCitation(ctx context.Context, chatID, chunkID string, source domain.Source) error {
	content, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("encode source: %w", err)
	}
	_, err = s.messages.CreateMessage(ctx, &domain.Message{
		ChatID:  chatID,
		ChunkID: chunkID,
		Role:    domain.RoleAssistant,
		Task:    domain.TaskAnalyse,
		Status:  domain.StatusCompleted,
		Content: string(content),
	})
	return err
}

func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

func preview(content string) string {
	if len(content) > previewLimit {
		return content[:previewLimit] + "..."
	}
	return content
}
