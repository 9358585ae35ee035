package psqlbuilder

import (
	sq "github.com/Masterminds/squirrel"
)

// builder общий squirrel-билдер с плейсхолдерами PostgreSQL ($1, $2, ...)
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Select начинает SELECT запрос
func Select(columns ...string) sq.SelectBuilder {
	return builder.Select(columns...)
}

// Insert начинает INSERT запрос
func Insert(table string) sq.InsertBuilder {
	return builder.Insert(table)
}

// Update начинает UPDATE запрос
func Update(table string) sq.UpdateBuilder {
	return builder.Update(table)
}

// Delete начинает DELETE запрос
func Delete(table string) sq.DeleteBuilder {
	return builder.Delete(table)
}
