package queries

import "context"

const listQuestions = `-- name: ListQuestions :many
SELECT question_id, topic, prompt, options, correct_option
FROM questions
ORDER BY question_id
`

func (q *Queries) ListQuestions(ctx context.Context) ([]Question, error) {
	rows, err := q.db.Query(ctx, listQuestions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Question
	for rows.Next() {
		var i Question
		if err := rows.Scan(
			&i.QuestionID,
			&i.Topic,
			&i.Prompt,
			&i.Options,
			&i.CorrectOption,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
