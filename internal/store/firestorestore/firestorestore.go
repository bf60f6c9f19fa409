// Package firestorestore keeps tips, news and messages in Cloud Firestore
// collections.
package firestorestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

const (
	tipsCollection     = "tips"
	newsCollection     = "news"
	messagesCollection = "messages"
)

// Config holds Firestore backend configuration
type Config struct {
	ProjectID       string
	CredentialsJSON string // service account JSON; empty uses application default credentials
}

// Store implements service.Backend on Firestore
type Store struct {
	client *firestore.Client
	logger zerolog.Logger
}

// Open creates a Firestore client. FIRESTORE_EMULATOR_HOST is honoured by the client library.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return New(client, logger), nil
}

// New wraps an existing client
func New(client *firestore.Client, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.With().Str("component", "firestore_store").Logger(),
	}
}

func (s *Store) Name() string { return "firestore" }

// Ping issues a cheap read to confirm the project is reachable
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(tipsCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

type tipDoc struct {
	ID          string       `firestore:"id"`
	Category    string       `firestore:"category"`
	Teams       string       `firestore:"teams"`
	League      string       `firestore:"league"`
	Prediction  string       `firestore:"prediction"`
	Legs        []models.Leg `firestore:"legs"`
	Odds        string       `firestore:"odds"`
	KickoffTime time.Time    `firestore:"kickoff_time"`
	Status      string       `firestore:"status"`
	ResultScore *string      `firestore:"result_score"`
	Votes       models.Votes `firestore:"votes"`
	Analysis    string       `firestore:"analysis"`
	BettingCode string       `firestore:"betting_code"`
	CreatedAt   time.Time    `firestore:"created_at"`
}

func toTipDoc(t *models.Tip) *tipDoc {
	legs := t.Legs
	if legs == nil {
		legs = []models.Leg{}
	}
	return &tipDoc{
		ID:          t.ID,
		Category:    string(t.Category),
		Teams:       t.Teams,
		League:      t.League,
		Prediction:  t.Prediction,
		Legs:        legs,
		Odds:        t.Odds.String(),
		KickoffTime: t.KickoffTime.UTC(),
		Status:      string(t.Status),
		ResultScore: t.ResultScore,
		Votes:       t.Votes,
		Analysis:    t.Analysis,
		BettingCode: t.BettingCode,
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

func docToTip(doc *firestore.DocumentSnapshot) (*models.Tip, error) {
	var d tipDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode tip %s: %w", doc.Ref.ID, err)
	}
	odds, err := decimal.NewFromString(d.Odds)
	if err != nil {
		return nil, fmt.Errorf("tip %s has malformed odds %q: %w", doc.Ref.ID, d.Odds, err)
	}

	id := d.ID
	if id == "" {
		id = doc.Ref.ID
	}
	tip := &models.Tip{
		ID:          id,
		Category:    models.Category(d.Category),
		Teams:       d.Teams,
		League:      d.League,
		Prediction:  d.Prediction,
		Legs:        d.Legs,
		Odds:        odds,
		KickoffTime: d.KickoffTime.UTC(),
		Status:      models.TipStatus(d.Status),
		ResultScore: d.ResultScore,
		Votes:       d.Votes,
		Analysis:    d.Analysis,
		BettingCode: d.BettingCode,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	return tip.Normalize(), nil
}

func (s *Store) CreateTip(ctx context.Context, tip *models.Tip) error {
	_, err := s.client.Collection(tipsCollection).Doc(tip.ID).Create(ctx, toTipDoc(tip))
	if err != nil {
		return translate(fmt.Sprintf("tip %s", tip.ID), err)
	}
	return nil
}

func (s *Store) GetTip(ctx context.Context, id string) (*models.Tip, error) {
	doc, err := s.client.Collection(tipsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(fmt.Sprintf("tip %s", id), err)
	}
	return docToTip(doc)
}

func (s *Store) ListTips(ctx context.Context) ([]*models.Tip, error) {
	iter := s.client.Collection(tipsCollection).OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	tips := make([]*models.Tip, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tips: %w", err)
		}
		tip, err := docToTip(doc)
		if err != nil {
			s.logger.Warn().Err(err).Str("doc", doc.Ref.ID).Msg("skipping unreadable tip")
			continue
		}
		tips = append(tips, tip)
	}
	return tips, nil
}

// VoteOnTip uses a server-side increment so concurrent votes never overwrite each other
func (s *Store) VoteOnTip(ctx context.Context, id string, vote models.VoteType) (models.Votes, error) {
	if !vote.Valid() {
		return models.Votes{}, fmt.Errorf("%w: unknown vote %q", models.ErrValidation, vote)
	}

	ref := s.client.Collection(tipsCollection).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "votes." + string(vote), Value: firestore.Increment(1)},
	})
	if err != nil {
		return models.Votes{}, translate(fmt.Sprintf("tip %s", id), err)
	}

	doc, err := ref.Get(ctx)
	if err != nil {
		return models.Votes{}, translate(fmt.Sprintf("tip %s", id), err)
	}
	tip, err := docToTip(doc)
	if err != nil {
		return models.Votes{}, err
	}
	return tip.Votes, nil
}

// SettleTip checks and writes the status inside one transaction
func (s *Store) SettleTip(ctx context.Context, id string, st models.TipStatus, score *string) (*models.Tip, error) {
	ref := s.client.Collection(tipsCollection).Doc(id)

	var settled *models.Tip
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		tip, err := docToTip(doc)
		if err != nil {
			return err
		}
		if tip.Status != models.StatusPending {
			return fmt.Errorf("tip %s is %s: %w", id, tip.Status, models.ErrConflict)
		}

		updates := []firestore.Update{{Path: "status", Value: string(st)}}
		tip.Status = st
		if score != nil {
			v := *score
			updates = append(updates, firestore.Update{Path: "result_score", Value: v})
			tip.ResultScore = &v
		}
		settled = tip
		return tx.Update(ref, updates)
	})
	if err != nil {
		return nil, translate(fmt.Sprintf("tip %s", id), err)
	}
	return settled, nil
}

func (s *Store) DeleteTip(ctx context.Context, id string) error {
	if _, err := s.client.Collection(tipsCollection).Doc(id).Delete(ctx); err != nil {
		return translate(fmt.Sprintf("tip %s", id), err)
	}
	return nil
}

type newsDoc struct {
	ID        string     `firestore:"id"`
	Title     string     `firestore:"title"`
	Category  string     `firestore:"category"`
	Body      string     `firestore:"body"`
	ImageURL  *string    `firestore:"image_url"`
	VideoURL  *string    `firestore:"video_url"`
	Source    *string    `firestore:"source"`
	MatchDate *time.Time `firestore:"match_date"`
	CreatedAt time.Time  `firestore:"created_at"`
}

func (s *Store) CreateNews(ctx context.Context, post *models.NewsPost) error {
	doc := newsDoc{
		ID:        post.ID,
		Title:     post.Title,
		Category:  post.Category,
		Body:      post.Body,
		ImageURL:  post.ImageURL,
		VideoURL:  post.VideoURL,
		Source:    post.Source,
		MatchDate: post.MatchDate,
		CreatedAt: post.CreatedAt.UTC(),
	}
	if _, err := s.client.Collection(newsCollection).Doc(post.ID).Create(ctx, doc); err != nil {
		return translate(fmt.Sprintf("news %s", post.ID), err)
	}
	return nil
}

func (s *Store) ListNews(ctx context.Context) ([]*models.NewsPost, error) {
	docs, err := s.client.Collection(newsCollection).OrderBy("created_at", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}

	posts := make([]*models.NewsPost, 0, len(docs))
	for _, doc := range docs {
		var d newsDoc
		if err := doc.DataTo(&d); err != nil {
			s.logger.Warn().Err(err).Str("doc", doc.Ref.ID).Msg("skipping unreadable news post")
			continue
		}
		post := &models.NewsPost{
			ID:        doc.Ref.ID,
			Title:     d.Title,
			Category:  d.Category,
			Body:      d.Body,
			ImageURL:  d.ImageURL,
			VideoURL:  d.VideoURL,
			Source:    d.Source,
			CreatedAt: d.CreatedAt.UTC(),
		}
		if d.MatchDate != nil {
			md := d.MatchDate.UTC()
			post.MatchDate = &md
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Store) DeleteNews(ctx context.Context, id string) error {
	if _, err := s.client.Collection(newsCollection).Doc(id).Delete(ctx); err != nil {
		return translate(fmt.Sprintf("news %s", id), err)
	}
	return nil
}

type messageDoc struct {
	ID        string    `firestore:"id"`
	UserID    string    `firestore:"user_id"`
	UserName  string    `firestore:"user_name"`
	Content   string    `firestore:"content"`
	Reply     *string   `firestore:"reply"`
	CreatedAt time.Time `firestore:"created_at"`
	IsRead    bool      `firestore:"is_read"`
}

func (d *messageDoc) toModel(id string) *models.Message {
	return &models.Message{
		ID:        id,
		UserID:    d.UserID,
		UserName:  d.UserName,
		Content:   d.Content,
		Reply:     d.Reply,
		CreatedAt: d.CreatedAt.UTC(),
		IsRead:    d.IsRead,
	}
}

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	doc := messageDoc{
		ID:        msg.ID,
		UserID:    msg.UserID,
		UserName:  msg.UserName,
		Content:   msg.Content,
		Reply:     msg.Reply,
		CreatedAt: msg.CreatedAt.UTC(),
		IsRead:    msg.IsRead,
	}
	if _, err := s.client.Collection(messagesCollection).Doc(msg.ID).Create(ctx, doc); err != nil {
		return translate(fmt.Sprintf("message %s", msg.ID), err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context) ([]*models.Message, error) {
	return s.listMessages(ctx, s.client.Collection(messagesCollection).Query)
}

// ListMessagesByUser filters on user_id only; ordering is left to the caller
// so no composite index is needed
func (s *Store) ListMessagesByUser(ctx context.Context, userID string) ([]*models.Message, error) {
	return s.listMessages(ctx, s.client.Collection(messagesCollection).Where("user_id", "==", userID))
}

func (s *Store) listMessages(ctx context.Context, q firestore.Query) ([]*models.Message, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]*models.Message, 0, len(docs))
	for _, doc := range docs {
		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			s.logger.Warn().Err(err).Str("doc", doc.Ref.ID).Msg("skipping unreadable message")
			continue
		}
		msgs = append(msgs, d.toModel(doc.Ref.ID))
	}
	return msgs, nil
}

func (s *Store) ReplyToMessage(ctx context.Context, id, reply string) (*models.Message, error) {
	ref := s.client.Collection(messagesCollection).Doc(id)

	var answered *models.Message
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			return fmt.Errorf("failed to decode message %s: %w", id, err)
		}
		if d.Reply != nil {
			return fmt.Errorf("message %s already answered: %w", id, models.ErrConflict)
		}

		d.Reply = &reply
		d.IsRead = true
		answered = d.toModel(id)
		return tx.Update(ref, []firestore.Update{
			{Path: "reply", Value: reply},
			{Path: "is_read", Value: true},
		})
	})
	if err != nil {
		return nil, translate(fmt.Sprintf("message %s", id), err)
	}
	return answered, nil
}

// translate maps gRPC status codes onto the domain errors
func translate(what string, err error) error {
	if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrNotFound) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w: already exists", what, models.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
