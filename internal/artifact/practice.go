package artifact

// Grade scores a finished practice run. answers holds the chosen option
// index per question; -1 or an out-of-range position counts as unanswered
// and therefore wrong. Extra answers beyond the question count are ignored.
func (q *Quiz) Grade(answers []int) (score int) {
	for i, question := range q.Questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == question.CorrectIndex {
			score++
		}
	}
	return score
}
