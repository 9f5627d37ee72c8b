package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), p. ej. quantity >= 0.
func isCheckViolation(err error) bool {
	return hasCode(err, "23514")
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// jsonParam convierte metadata opcional a parámetro JSONB (NULL si viene vacía).
func jsonParam(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}

// whereBuilder arma cláusulas WHERE con placeholders posicionales ($1, $2...).
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *whereBuilder) sql() string {
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page agrega ORDER BY, LIMIT y OFFSET a la consulta.
func (w *whereBuilder) page(query, orderBy string, limit, offset int) (string, []any) {
	n := len(w.args)
	q := query + w.sql() + fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", orderBy, n+1, n+2)
	return q, append(w.args, limit, offset)
}

// isUUID evita consultar columnas UUID con identificadores mal formados (error 22P02 de Postgres).
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
