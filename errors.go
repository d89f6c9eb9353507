package vantage

import "errors"

// Sentinel errors for builder misuse and execution failures.
//
// Builder errors are returned from the offending call (or recorded on the
// receiver by chainable With* methods and returned by the next call that
// produces a query). Wrapped errors carry table and column names; use the
// Is*Err helpers to classify them.
var (
	// ErrColumnNotFound is returned when a column, joined column or computed
	// column is referenced by a name the table does not define.
	ErrColumnNotFound = errors.New("vantage: column not found")

	// ErrRelationNotFound is returned when a relation is traversed by a name
	// that was never registered with WithMany or WithOne.
	ErrRelationNotFound = errors.New("vantage: reference not found")

	// ErrNoIDColumn is returned when an operation needs the identifier column
	// and the table has neither an explicit id column nor a column named "id".
	ErrNoIDColumn = errors.New("vantage: table has no id column")

	// ErrWrongSourceKind is returned when an insert, update or delete query has
	// a source other than a plain named table.
	ErrWrongSourceKind = errors.New("vantage: wrong source kind for statement")

	// ErrSetFieldOnKind is returned when set fields are added to a query whose
	// kind is not insert, replace or update.
	ErrSetFieldOnKind = errors.New("vantage: set fields are only valid for insert and update")

	// ErrAlreadyJoined is returned when two tables sharing one alias allocator
	// are joined. Clone and alias the child table first.
	ErrAlreadyJoined = errors.New("vantage: tables are already joined")

	// ErrAliasConflict is returned when the alias allocators of two tables
	// reserve or assign the same name.
	ErrAliasConflict = errors.New("vantage: table alias conflict while joining")

	// ErrIDFieldInValues is returned by UpdateWith when the values include the
	// identifier column.
	ErrIDFieldInValues = errors.New("vantage: update values must not specify the id column")

	// ErrNoRows is returned when a single row or value was requested and the
	// statement produced none.
	ErrNoRows = errors.New("vantage: no rows in result")

	// ErrPlaceholderMismatch is returned when an expression template holds a
	// different number of placeholders than parameters.
	ErrPlaceholderMismatch = errors.New("vantage: placeholder count does not match parameters")

	// ErrNotAStruct is returned when a record shape or value set is neither a
	// struct nor a map with string keys.
	ErrNotAStruct = errors.New("vantage: expected a struct or map")

	// ErrNoSetFields is returned when an INSERT, REPLACE or UPDATE has no
	// column to write.
	ErrNoSetFields = errors.New("vantage: statement has no fields to set")

	// ErrInvalidIdentifier is returned when a column or table name contains
	// the "{}" placeholder marker.
	ErrInvalidIdentifier = errors.New("vantage: identifier contains a placeholder marker")
)

// IsColumnNotFoundErr returns true if err is or wraps ErrColumnNotFound.
func IsColumnNotFoundErr(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}

// IsRelationNotFoundErr returns true if err is or wraps ErrRelationNotFound.
func IsRelationNotFoundErr(err error) bool {
	return errors.Is(err, ErrRelationNotFound)
}

// IsNoIDColumnErr returns true if err is or wraps ErrNoIDColumn.
func IsNoIDColumnErr(err error) bool {
	return errors.Is(err, ErrNoIDColumn)
}

// IsWrongSourceKindErr returns true if err is or wraps ErrWrongSourceKind.
func IsWrongSourceKindErr(err error) bool {
	return errors.Is(err, ErrWrongSourceKind)
}

// IsSetFieldOnKindErr returns true if err is or wraps ErrSetFieldOnKind.
func IsSetFieldOnKindErr(err error) bool {
	return errors.Is(err, ErrSetFieldOnKind)
}

// IsJoinErr returns true if err is or wraps ErrAlreadyJoined or ErrAliasConflict.
func IsJoinErr(err error) bool {
	return errors.Is(err, ErrAlreadyJoined) || errors.Is(err, ErrAliasConflict)
}

// IsNoSetFieldsErr returns true if err is or wraps ErrNoSetFields.
func IsNoSetFieldsErr(err error) bool {
	return errors.Is(err, ErrNoSetFields)
}

// IsInvalidIdentifierErr returns true if err is or wraps ErrInvalidIdentifier.
func IsInvalidIdentifierErr(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier)
}

// IsNoRowsErr returns true if err is or wraps ErrNoRows.
func IsNoRowsErr(err error) bool {
	return errors.Is(err, ErrNoRows)
}
