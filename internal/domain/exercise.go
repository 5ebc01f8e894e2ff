package domain

type Exercise struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Subtitle    string        `json:"subtitle"`
	Type        *ExerciseType `json:"type,omitempty"`
	BodyWeight  float64       `json:"body_weight"`
	Weight      float64       `json:"weight"`
	Repetitions int           `json:"repetitions"`
	Set         int           `json:"set"`
	Rest        int           `json:"rest"`
}

type ExerciseType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
