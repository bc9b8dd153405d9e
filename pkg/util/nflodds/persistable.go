package nflodds

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/richard-senior/nflodds/internal/logger"
	_ "modernc.org/sqlite"
)

var (
	dbMu sync.Mutex
	db   *sql.DB
	// serialises opening so a live handle is never replaced by a lazy open
	initMu sync.Mutex
)

// ErrNotFound is returned by FindByPrimaryKey when no row matches
var ErrNotFound = errors.New("record not found")

// Persistable interface defines methods that persistent objects must implement.
// Columns come from struct tags: `column`, `dbtype`, `primary`, `index`
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]any
	BeforeSave() error
	AfterSave() error
}

// executor is satisfied by both *sql.DB and *sql.Tx
type executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InitDatabase opens (or reopens) the database at path and creates all tables.
// ":memory:" gives a private in-memory database, used by tests
func InitDatabase(path string) error {
	initMu.Lock()
	defer initMu.Unlock()
	d, err := openDatabase(path)
	if err != nil {
		return err
	}
	dbMu.Lock()
	old := db
	db = d
	dbMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// openDatabase returns a handle with every table in place, so it is ready
// before anyone else can see it
func openDatabase(path string) (*sql.DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a second connection to ":memory:" would see an empty database
	d.SetMaxOpenConns(1)
	if err = d.Ping(); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, obj := range []Persistable{&Game{}, &TeamGameEPA{}, &Prediction{}} {
		if err := createTable(d, obj); err != nil {
			d.Close()
			return nil, err
		}
	}
	logger.Info("Database initialized", path)
	return d, nil
}

func currentDB() *sql.DB {
	dbMu.Lock()
	defer dbMu.Unlock()
	return db
}

// GetDB returns the database connection, opening the configured path on first use.
// Concurrent first callers share one handle
func GetDB() (*sql.DB, error) {
	if d := currentDB(); d != nil {
		return d, nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if d := currentDB(); d != nil {
		return d, nil
	}
	path, err := GetDbPath()
	if err != nil {
		return nil, err
	}
	d, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	dbMu.Lock()
	db = d
	dbMu.Unlock()
	return d, nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	dbMu.Lock()
	defer dbMu.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// CreateTable creates a table (and its indexes) for the given persistable object
func CreateTable(obj Persistable) error {
	d, err := GetDB()
	if err != nil {
		return err
	}
	return createTable(d, obj)
}

func createTable(d executor, obj Persistable) error {
	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)
	logger.Debug("Creating table with SQL", createSQL)
	if _, err := d.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	for _, query := range generateIndexSQL(obj, tableName) {
		if _, err := d.Exec(query); err != nil {
			logger.Warn("Failed to create index", query, err)
		}
	}
	return nil
}

// persistedField is one tagged struct field
type persistedField struct {
	index   int
	column  string
	dbType  string
	primary bool
	indexed bool
}

var fieldCache sync.Map // reflect.Type -> []persistedField

func persistedFields(t reflect.Type) []persistedField {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]persistedField)
	}
	var fields []persistedField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		dbType := field.Tag.Get("dbtype")
		if dbType == "" || field.Tag.Get("persist") == "false" {
			continue
		}
		column := field.Tag.Get("column")
		if column == "" {
			column = strings.ToLower(field.Name)
		}
		fields = append(fields, persistedField{
			index:   i,
			column:  column,
			dbType:  dbType,
			primary: field.Tag.Get("primary") == "true",
			indexed: field.Tag.Get("index") == "true",
		})
	}
	fieldCache.Store(t, fields)
	return fields
}

func generateCreateTableSQL(obj any, tableName string) string {
	var columns, primaryKeys []string
	for _, f := range persistedFields(reflect.TypeOf(obj)) {
		columns = append(columns, fmt.Sprintf("%s %s", f.column, f.dbType))
		if f.primary {
			primaryKeys = append(primaryKeys, f.column)
		}
	}
	if len(primaryKeys) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(columns, ", "))
}

func generateIndexSQL(obj any, tableName string) []string {
	var indexSQL []string
	for _, f := range persistedFields(reflect.TypeOf(obj)) {
		if !f.indexed {
			continue
		}
		indexSQL = append(indexSQL, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
			tableName, f.column, tableName, f.column))
	}
	return indexSQL
}

// Save persists the object, replacing any row with the same primary key
func Save(obj Persistable) error {
	d, err := GetDB()
	if err != nil {
		return err
	}
	return save(d, obj)
}

// save upserts through INSERT ... ON CONFLICT so it works the same inside a transaction
func save(ex executor, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}

	tableName := obj.GetTableName()
	v := reflect.Indirect(reflect.ValueOf(obj))
	var columns, placeholders, updates, primaryKeys []string
	var values []any
	for _, f := range persistedFields(v.Type()) {
		columns = append(columns, f.column)
		placeholders = append(placeholders, "?")
		values = append(values, v.Field(f.index).Interface())
		if f.primary {
			primaryKeys = append(primaryKeys, f.column)
		} else {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", f.column, f.column))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if len(primaryKeys) > 0 && len(updates) > 0 {
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(primaryKeys, ", "), strings.Join(updates, ", "))
	}

	if _, err := ex.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to save into %s: %w", tableName, err)
	}
	if err := obj.AfterSave(); err != nil {
		return fmt.Errorf("after save hook failed: %w", err)
	}
	return nil
}

// BulkSave saves multiple objects in a single transaction
func BulkSave[T Persistable](objects []T) error {
	if len(objects) == 0 {
		return nil
	}
	d, err := GetDB()
	if err != nil {
		return err
	}
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objects {
		if err := save(tx, obj); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.Debug("Bulk saved", len(objects), "rows into", objects[0].GetTableName())
	return nil
}

// Exists checks if the object exists in the database
func Exists(obj Persistable) (bool, error) {
	d, err := GetDB()
	if err != nil {
		return false, err
	}
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", obj.GetTableName(), whereClause)

	var count int
	if err := d.QueryRow(query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", obj.GetTableName(), err)
	}
	return count > 0, nil
}

// Delete removes the object from the database
func Delete(obj Persistable) error {
	d, err := GetDB()
	if err != nil {
		return err
	}
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", obj.GetTableName(), whereClause)
	if _, err := d.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// FindByPrimaryKey loads the row with the given key into obj
func FindByPrimaryKey(obj Persistable, primaryKey map[string]any) error {
	d, err := GetDB()
	if err != nil {
		return err
	}
	columns, destinations := selectData(obj)
	whereClause, values := buildWhereClause(primaryKey)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), obj.GetTableName(), whereClause)
	logger.Debug("FindByPrimaryKey SQL", query)

	if err := d.QueryRow(query, values...).Scan(destinations...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", obj.GetTableName(), ErrNotFound)
		}
		return fmt.Errorf("failed to scan row from %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// FindWhere runs a custom WHERE clause and returns freshly allocated objects of type T.
// An empty clause returns every row
func FindWhere[T any, PT interface {
	*T
	Persistable
}](whereClause string, args ...any) ([]*T, error) {
	d, err := GetDB()
	if err != nil {
		return nil, err
	}
	var proto PT = new(T)
	columns, _ := selectData(proto)
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), proto.GetTableName())
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	logger.Debug("FindWhere SQL", query)

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", proto.GetTableName(), err)
	}
	defer rows.Close()

	var results []*T
	for rows.Next() {
		obj := new(T)
		_, destinations := selectData(obj)
		if err := rows.Scan(destinations...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", proto.GetTableName(), err)
		}
		results = append(results, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", proto.GetTableName(), err)
	}
	return results, nil
}

func selectData(obj any) ([]string, []any) {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var columns []string
	var destinations []any
	for _, f := range persistedFields(v.Type()) {
		columns = append(columns, f.column)
		destinations = append(destinations, v.Field(f.index).Addr().Interface())
	}
	return columns, destinations
}

// buildWhereClause builds a WHERE clause from a primary key map.
// Columns are sorted so the generated SQL is stable
func buildWhereClause(primaryKey map[string]any) (string, []any) {
	keys := make([]string, 0, len(primaryKey))
	for k := range primaryKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		conditions = append(conditions, fmt.Sprintf("%s = ?", k))
		values = append(values, primaryKey[k])
	}
	return strings.Join(conditions, " AND "), values
}
