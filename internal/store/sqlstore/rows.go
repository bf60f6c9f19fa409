package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

type tipRow struct {
	ID            string          `gorm:"primaryKey;size:64"`
	Category      string          `gorm:"size:16;not null;index"`
	Teams         string          `gorm:"size:255;not null"`
	League        string          `gorm:"size:255;not null"`
	Prediction    string          `gorm:"size:255;not null"`
	Legs          []models.Leg    `gorm:"serializer:json"`
	Odds          decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	KickoffTime   time.Time       `gorm:"not null"`
	Status        string          `gorm:"size:16;not null;default:PENDING;index"`
	ResultScore   *string         `gorm:"size:32"`
	VotesAgree    int64           `gorm:"not null;default:0"`
	VotesDisagree int64           `gorm:"not null;default:0"`
	Analysis      string          `gorm:"type:text"`
	BettingCode   string          `gorm:"size:64"`
	CreatedAt     time.Time       `gorm:"not null;index"`
}

func (tipRow) TableName() string { return "tips" }

func toTipRow(t *models.Tip) *tipRow {
	legs := t.Legs
	if legs == nil {
		legs = []models.Leg{}
	}
	return &tipRow{
		ID:            t.ID,
		Category:      string(t.Category),
		Teams:         t.Teams,
		League:        t.League,
		Prediction:    t.Prediction,
		Legs:          legs,
		Odds:          t.Odds,
		KickoffTime:   t.KickoffTime.UTC(),
		Status:        string(t.Status),
		ResultScore:   t.ResultScore,
		VotesAgree:    t.Votes.Agree,
		VotesDisagree: t.Votes.Disagree,
		Analysis:      t.Analysis,
		BettingCode:   t.BettingCode,
		CreatedAt:     t.CreatedAt.UTC(),
	}
}

func (r *tipRow) toModel() *models.Tip {
	tip := &models.Tip{
		ID:          r.ID,
		Category:    models.Category(r.Category),
		Teams:       r.Teams,
		League:      r.League,
		Prediction:  r.Prediction,
		Legs:        r.Legs,
		Odds:        r.Odds,
		KickoffTime: r.KickoffTime.UTC(),
		Status:      models.TipStatus(r.Status),
		ResultScore: r.ResultScore,
		Votes:       models.Votes{Agree: r.VotesAgree, Disagree: r.VotesDisagree},
		Analysis:    r.Analysis,
		BettingCode: r.BettingCode,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	return tip.Normalize()
}

type newsRow struct {
	ID        string  `gorm:"primaryKey;size:64"`
	Title     string  `gorm:"size:255;not null"`
	Category  string  `gorm:"size:64"`
	Body      string  `gorm:"type:text;not null"`
	ImageURL  *string `gorm:"size:1024"`
	VideoURL  *string `gorm:"size:1024"`
	Source    *string `gorm:"size:255"`
	MatchDate *time.Time
	CreatedAt time.Time `gorm:"not null;index"`
}

func (newsRow) TableName() string { return "news" }

func toNewsRow(p *models.NewsPost) *newsRow {
	return &newsRow{
		ID:        p.ID,
		Title:     p.Title,
		Category:  p.Category,
		Body:      p.Body,
		ImageURL:  p.ImageURL,
		VideoURL:  p.VideoURL,
		Source:    p.Source,
		MatchDate: p.MatchDate,
		CreatedAt: p.CreatedAt.UTC(),
	}
}

func (r *newsRow) toModel() *models.NewsPost {
	post := &models.NewsPost{
		ID:        r.ID,
		Title:     r.Title,
		Category:  r.Category,
		Body:      r.Body,
		ImageURL:  r.ImageURL,
		VideoURL:  r.VideoURL,
		Source:    r.Source,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.MatchDate != nil {
		d := r.MatchDate.UTC()
		post.MatchDate = &d
	}
	return post
}

type messageRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"size:128;not null;index"`
	UserName  string    `gorm:"size:255"`
	Content   string    `gorm:"type:text;not null"`
	Reply     *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
	IsRead    bool      `gorm:"not null;default:false"`
}

func (messageRow) TableName() string { return "messages" }

func toMessageRow(m *models.Message) *messageRow {
	return &messageRow{
		ID:        m.ID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Content:   m.Content,
		Reply:     m.Reply,
		CreatedAt: m.CreatedAt.UTC(),
		IsRead:    m.IsRead,
	}
}

func (r *messageRow) toModel() *models.Message {
	return &models.Message{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Content:   r.Content,
		Reply:     r.Reply,
		CreatedAt: r.CreatedAt.UTC(),
		IsRead:    r.IsRead,
	}
}
