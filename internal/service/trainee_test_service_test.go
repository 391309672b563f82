package service

import (
	"errors"
	"testing"

	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
)

type memTestRepo struct {
	tests map[uint]model.Test
}

func newMemTestRepo() *memTestRepo {
	return &memTestRepo{tests: make(map[uint]model.Test)}
}

func (m *memTestRepo) Create(test *model.Test) error {
	m.tests[test.ID] = *test
	return nil
}

func (m *memTestRepo) Update(test *model.Test) error {
	m.tests[test.ID] = *test
	return nil
}

func (m *memTestRepo) Delete(id uint) error {
	delete(m.tests, id)
	return nil
}

func (m *memTestRepo) FindByID(id uint) (*model.Test, error) {
	test, ok := m.tests[id]
	if !ok {
		return nil, errors.New("test not found")
	}
	return &test, nil
}

func (m *memTestRepo) FindByIDWithQuestions(id uint) (*model.Test, error) {
	return m.FindByID(id)
}

func (m *memTestRepo) FindAllWithQuestionCount() ([]repository.TestWithCount, error) {
	var out []repository.TestWithCount
	for _, test := range m.tests {
		out = append(out, repository.TestWithCount{Test: test, QuestionCount: len(test.Questions)})
	}
	return out, nil
}

func (m *memTestRepo) ReplaceQuestions(testID uint, questions []model.Question) error {
	test := m.tests[testID]
	test.Questions = questions
	m.tests[testID] = test
	return nil
}

// Questions in order_in_test order, with deliberately non-contiguous ranks.
func seedTakeTest(shuffle bool) *memTestRepo {
	repo := newMemTestRepo()
	repo.tests[1] = model.Test{
		ID:      1,
		Title:   "Radio Procedures",
		Type:    model.TestTypeStandard,
		Shuffle: shuffle,
		Questions: []model.Question{
			{ID: 10, TestID: 1, Text: "q-alpha", Type: "single_choice", Points: 1, OrderInTest: 1,
				AnswerKey: `{"options":["a","b"],"correct":0}`},
			{ID: 11, TestID: 1, Text: "q-bravo", Type: "free_text", Points: 2, OrderInTest: 4,
				AnswerKey: `{"model_answer":"anything"}`},
			{ID: 12, TestID: 1, Text: "q-charlie", Type: "single_choice", Points: 1, OrderInTest: 9,
				AnswerKey: `{"options":["x","y","z"],"correct":2}`},
		},
	}
	return repo
}

func TestGetTestForTakingAssignsScoringIndexes(t *testing.T) {
	svc := NewTraineeTestService(seedTakeTest(false))

	take, err := svc.GetTestForTaking(1)
	if err != nil {
		t.Fatalf("GetTestForTaking: %v", err)
	}
	if len(take.Questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(take.Questions))
	}

	wantText := map[int]string{0: "q-alpha", 1: "q-bravo", 2: "q-charlie"}
	for _, q := range take.Questions {
		if want, ok := wantText[q.Index]; !ok || q.Text != want {
			t.Fatalf("index %d carries %q, want %q", q.Index, q.Text, want)
		}
	}
}

func TestGetTestForTakingShuffleKeepsIndexes(t *testing.T) {
	svc := NewTraineeTestService(seedTakeTest(true))

	// Shuffling only reorders the delivered array; the index each question
	// carries must stay its rank in the question order, since that is the
	// answers-map key scoring uses.
	for run := 0; run < 20; run++ {
		take, err := svc.GetTestForTaking(1)
		if err != nil {
			t.Fatalf("GetTestForTaking: %v", err)
		}

		seen := make(map[int]string, len(take.Questions))
		for _, q := range take.Questions {
			if _, dup := seen[q.Index]; dup {
				t.Fatalf("index %d delivered twice", q.Index)
			}
			seen[q.Index] = q.Text
		}
		if seen[0] != "q-alpha" || seen[1] != "q-bravo" || seen[2] != "q-charlie" {
			t.Fatalf("shuffle broke index assignment: %v", seen)
		}
	}
}

func TestGetTestForTakingStripsKeys(t *testing.T) {
	svc := NewTraineeTestService(seedTakeTest(false))

	take, err := svc.GetTestForTaking(1)
	if err != nil {
		t.Fatalf("GetTestForTaking: %v", err)
	}
	for _, q := range take.Questions {
		switch q.Index {
		case 0:
			if len(q.Options) != 2 {
				t.Fatalf("single_choice options = %v, want 2 entries", q.Options)
			}
		case 1:
			if len(q.Options) != 0 && len(q.Items) != 0 {
				t.Fatalf("free_text leaked content: %+v", q)
			}
		}
	}
}

func TestGetTestForTakingEmptyTest(t *testing.T) {
	repo := newMemTestRepo()
	repo.tests[2] = model.Test{ID: 2, Title: "Empty", Type: model.TestTypeStandard}
	svc := NewTraineeTestService(repo)

	if _, err := svc.GetTestForTaking(2); !errors.Is(err, ErrEmptyTest) {
		t.Fatalf("err = %v, want ErrEmptyTest", err)
	}
}
