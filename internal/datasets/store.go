// Package datasets implements the high-capacity dataset store on sqlite:
// CRUD with a name uniqueness constraint, search/sort listing, and metadata
// recomputation after every payload mutation.
package datasets

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"vsd/internal/models"
	"vsd/internal/providers"
	"vsd/internal/structures"
)

type Patch struct {
	Name    *string
	Data    any
	HasData bool
	Format  *models.Format
	Source  *models.Source
	Comment *string
	Meta    map[string]any
}

type ListOptions struct {
	SortKey    string
	Descending bool
	Search     string
}

type StoreInterface interface {
	Create(ctx context.Context, d *models.Dataset) error
	Get(ctx context.Context, id int64) (*models.Dataset, error)
	GetByName(ctx context.Context, name string) (*models.Dataset, error)
	Update(ctx context.Context, id int64, patch Patch) (*models.Dataset, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, opts ListOptions) ([]*models.Dataset, error)
	RefreshMetadata(ctx context.Context, id int64) (*models.Dataset, error)
	Import(ctx context.Context, d *models.Dataset) (bool, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

type Store struct {
	db      *sql.DB
	fetcher FetcherInterface
	logger  providers.Logger
}

func NewStore(conf *structures.Config, fetcher FetcherInterface, logger providers.Logger) (StoreInterface, error) {
	db, err := openDB(conf.Datasets.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "Dataset store opened at %s", conf.Datasets.DBPath)
	return &Store{db: db, fetcher: fetcher, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const datasetColumns = `id, name, data, format, source, comment, row_count, column_count, columns, size, created, modified, meta`

func (s *Store) Create(ctx context.Context, d *models.Dataset) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("dataset name is required")
	}
	if d.Format == "" {
		d.Format = models.FormatJSON
	}
	if !d.Format.Valid() {
		return fmt.Errorf("unrecognized format %q", d.Format)
	}
	if d.Source == "" {
		d.Source = models.SourceInline
	}

	taken, err := s.nameTaken(ctx, d.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return &models.DuplicateNameError{Name: d.Name}
	}

	if d.ID == 0 {
		d.ID = models.NewRecordID()
	}
	now := time.Now()
	d.Created = now
	d.Modified = now

	raw, err := serializeData(d)
	if err != nil {
		return err
	}
	if d.Source == models.SourceInline {
		computeMetadata(d, raw)
	}

	return s.insert(ctx, d, raw)
}

func (s *Store) insert(ctx context.Context, d *models.Dataset, raw []byte) error {
	columnsJSON, err := json.Marshal(d.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}
	metaJSON, err := json.Marshal(d.Meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (`+datasetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, string(raw), string(d.Format), string(d.Source), d.Comment,
		d.RowCount, d.ColumnCount, string(columnsJSON), d.Size,
		d.Created, d.Modified, string(metaJSON),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return &models.DuplicateNameError{Name: d.Name}
		}
		return fmt.Errorf("inserting dataset: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id)
	d, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "dataset", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting dataset %d: %w", id, err)
	}
	return d, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (*models.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE name = ?`, name)
	d, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, &models.DatasetNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("getting dataset %q: %w", name, err)
	}
	return d, nil
}

func (s *Store) Update(ctx context.Context, id int64, patch Patch) (*models.Dataset, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payloadTouched := false
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("dataset name is required")
		}
		if name != d.Name {
			taken, err := s.nameTaken(ctx, name, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, &models.DuplicateNameError{Name: name}
			}
			d.Name = name
		}
	}
	if patch.HasData {
		d.Data = patch.Data
		payloadTouched = true
	}
	if patch.Format != nil {
		if !patch.Format.Valid() {
			return nil, fmt.Errorf("unrecognized format %q", *patch.Format)
		}
		d.Format = *patch.Format
		payloadTouched = true
	}
	if patch.Source != nil {
		d.Source = *patch.Source
		payloadTouched = true
	}
	if patch.Comment != nil {
		d.Comment = *patch.Comment
	}
	if patch.Meta != nil {
		d.Meta = patch.Meta
	}
	d.Modified = time.Now()

	raw, err := serializeData(d)
	if err != nil {
		return nil, err
	}
	if payloadTouched && d.Source == models.SourceInline {
		computeMetadata(d, raw)
	}

	if err := s.write(ctx, d, raw); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) write(ctx context.Context, d *models.Dataset, raw []byte) error {
	columnsJSON, err := json.Marshal(d.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}
	metaJSON, err := json.Marshal(d.Meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE datasets
		 SET name = ?, data = ?, format = ?, source = ?, comment = ?,
		     row_count = ?, column_count = ?, columns = ?, size = ?,
		     modified = ?, meta = ?
		 WHERE id = ?`,
		d.Name, string(raw), string(d.Format), string(d.Source), d.Comment,
		d.RowCount, d.ColumnCount, string(columnsJSON), d.Size,
		d.Modified, string(metaJSON), d.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return &models.DuplicateNameError{Name: d.Name}
		}
		return fmt.Errorf("updating dataset %d: %w", d.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return &models.NotFoundError{Resource: "dataset", ID: d.ID}
	}
	return nil
}

// Delete removes a dataset. Snippets referencing it by name are left alone;
// the dangling reference surfaces at resolve time, not here.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dataset %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return &models.NotFoundError{Resource: "dataset", ID: id}
	}
	return nil
}

var sortColumns = map[string]string{
	"name":     "name",
	"created":  "created",
	"modified": "modified",
	"size":     "size",
}

func (s *Store) List(ctx context.Context, opts ListOptions) ([]*models.Dataset, error) {
	col, ok := sortColumns[opts.SortKey]
	if !ok {
		col = "modified"
	}
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}

	query := `SELECT ` + datasetColumns + ` FROM datasets`
	var args []any
	if opts.Search != "" {
		query += ` WHERE instr(lower(name), ?) > 0 OR instr(lower(comment), ?) > 0`
		term := strings.ToLower(opts.Search)
		args = append(args, term, term)
	}
	query += fmt.Sprintf(` ORDER BY %s %s, id ASC`, col, dir)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	var out []*models.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dataset row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating datasets: %w", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&n)
	return n, err
}

// Import inserts a foreign record additively: a colliding id is regenerated
// and a colliding name gets a numeric suffix. The local record is never
// overwritten. Returns whether the record had to be renamed or re-identified.
func (s *Store) Import(ctx context.Context, d *models.Dataset) (bool, error) {
	renamed := false

	if d.ID == 0 {
		d.ID = models.NewRecordID()
	} else if exists, err := s.idTaken(ctx, d.ID); err != nil {
		return false, err
	} else if exists {
		d.ID = models.NewRecordID()
		renamed = true
	}

	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		d.Name = "dataset_" + models.DefaultSnippetName(time.Now())
	}
	base := d.Name
	for i := 2; ; i++ {
		taken, err := s.nameTaken(ctx, d.Name, 0)
		if err != nil {
			return false, err
		}
		if !taken {
			break
		}
		d.Name = fmt.Sprintf("%s_%d", base, i)
		renamed = true
	}

	if d.Format == "" {
		d.Format = models.FormatJSON
	}
	if d.Source == "" {
		d.Source = models.SourceInline
	}
	now := time.Now()
	if d.Created.IsZero() {
		d.Created = now
	}
	d.Modified = now

	raw, err := serializeData(d)
	if err != nil {
		return false, err
	}
	if d.Source == models.SourceInline {
		computeMetadata(d, raw)
	}
	if err := s.insert(ctx, d, raw); err != nil {
		return false, err
	}
	return renamed, nil
}

// RefreshMetadata recomputes the advisory metadata. For URL datasets the
// remote payload is fetched and parsed; a fetch or parse failure leaves the
// stored metadata untouched and surfaces a FetchError.
func (s *Store) RefreshMetadata(ctx context.Context, id int64) (*models.Dataset, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.Source == models.SourceURL {
		if err := refreshRemote(ctx, s.fetcher, d); err != nil {
			return nil, err
		}
		d.Modified = time.Now()
		raw, err := serializeData(d)
		if err != nil {
			return nil, err
		}
		if err := s.write(ctx, d, raw); err != nil {
			return nil, err
		}
		return d, nil
	}

	raw, err := serializeData(d)
	if err != nil {
		return nil, err
	}
	computeMetadata(d, raw)
	d.Modified = time.Now()
	if err := s.write(ctx, d, raw); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) nameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM datasets WHERE name = ? AND id != ?`, name, exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking name %q: %w", name, err)
	}
	return n > 0, nil
}

func (s *Store) idTaken(ctx context.Context, id int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM datasets WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking id %d: %w", id, err)
	}
	return n > 0, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDataset(row scannable) (*models.Dataset, error) {
	var (
		d           models.Dataset
		data        string
		format      string
		source      string
		columnsJSON string
		metaJSON    string
	)
	err := row.Scan(
		&d.ID, &d.Name, &data, &format, &source, &d.Comment,
		&d.RowCount, &d.ColumnCount, &columnsJSON, &d.Size,
		&d.Created, &d.Modified, &metaJSON,
	)
	if err != nil {
		return nil, err
	}
	d.Format = models.Format(format)
	d.Source = models.Source(source)
	if d.Source == models.SourceURL {
		d.Data = data
	} else if data != "" {
		if err := json.Unmarshal([]byte(data), &d.Data); err != nil {
			return nil, fmt.Errorf("decoding payload: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(columnsJSON), &d.Columns); err != nil {
		return nil, fmt.Errorf("decoding columns: %w", err)
	}
	if metaJSON != "" && metaJSON != "null" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &d.Meta); err != nil {
			return nil, fmt.Errorf("decoding meta: %w", err)
		}
	}
	return &d, nil
}

// serializeData produces the canonical stored payload text: the URL string
// for remote datasets, JSON otherwise.
func serializeData(d *models.Dataset) ([]byte, error) {
	if d.Source == models.SourceURL {
		u, _ := d.Data.(string)
		return []byte(u), nil
	}
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return raw, nil
}
