package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/projects"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	id         text NOT NULL,
	data       jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

// Postgres stores every collection in a single jsonb documents table.
type Postgres struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger *zap.Logger
}

// NewPostgres connects, verifies the connection and makes sure the schema exists.
func NewPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("postgres store ready")
	return &Postgres{pool: pool, now: time.Now, logger: logger}, nil
}

func (p *Postgres) GetProfile(ctx context.Context, uid string) (*projects.Profile, error) {
	var profile projects.Profile
	if err := p.get(ctx, CollectionUsers, uid, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		profile.ID = uid
	}
	return &profile, nil
}

func (p *Postgres) PutProfile(ctx context.Context, profile *projects.Profile) error {
	if profile == nil || profile.ID == "" {
		return errors.New("profile id is required")
	}
	return p.put(ctx, CollectionUsers, profile.ID, profile)
}

func (p *Postgres) GetProject(ctx context.Context, id string) (*projects.Project, error) {
	var project projects.Project
	if err := p.get(ctx, CollectionProjects, id, &project); err != nil {
		return nil, err
	}
	project.ID = id
	return &project, nil
}

func (p *Postgres) ListProjects(ctx context.Context) (*projects.Projects, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at, id`,
		CollectionProjects,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var items []*projects.Project
	for rows.Next() {
		var (
			id   string
			data map[string]any
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}

		var project projects.Project
		if err := decodeDocument(data, &project); err != nil {
			p.logger.Warn("skipping malformed project", zap.String("id", id), zap.Error(err))
			continue
		}
		project.ID = id
		items = append(items, &project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return &projects.Projects{Items: items}, nil
}

func (p *Postgres) CreateProject(ctx context.Context, project *projects.Project) (*projects.Project, error) {
	if project == nil {
		return nil, errors.New("project is required")
	}

	c := project.Clone()
	c.ID = uuid.NewString()
	if c.CreatedTimestamp == 0 {
		c.CreatedTimestamp = p.now().UnixMilli()
	}

	if err := p.put(ctx, CollectionProjects, c.ID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Postgres) CreateMeetup(ctx context.Context, meetup *projects.Meetup) (*projects.Meetup, error) {
	if meetup == nil {
		return nil, errors.New("meetup is required")
	}

	c := *meetup
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = p.now().UTC()
	}

	if err := p.put(ctx, CollectionMeetups, c.ID, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Postgres) ListMeetups(ctx context.Context, uid string) (*projects.Meetups, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, data FROM documents
		 WHERE collection = $1 AND (data->>'proposerUid' = $2 OR data->>'recipientUid' = $2)
		 ORDER BY created_at DESC, id`,
		CollectionMeetups, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}
	defer rows.Close()

	var items []*projects.Meetup
	for rows.Next() {
		var (
			id   string
			data map[string]any
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan meetup: %w", err)
		}

		var meetup projects.Meetup
		if err := decodeDocument(data, &meetup); err != nil {
			p.logger.Warn("skipping malformed meetup", zap.String("id", id), zap.Error(err))
			continue
		}
		meetup.ID = id
		items = append(items, &meetup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}

	return &projects.Meetups{Items: items}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) get(ctx context.Context, collection, id string, target any) error {
	var data map[string]any
	err := p.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	if err := decodeDocument(data, target); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) put(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

// decodeDocument maps a jsonb document onto target. Timestamps arrive as
// RFC 3339 strings and numbers as float64.
func decodeDocument(data map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(stringToTimeHook, mapstructure.StringToTimeHookFunc(time.RFC3339Nano)),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

// stringToTimeHook leaves empty strings as the zero time.
func stringToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	if data.(string) == "" {
		return time.Time{}, nil
	}
	return data, nil
}
