package inspection_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ukaguzi/core/inspection"
)

func Test_visitTypeValidation(t *testing.T) {
	declared := append([]string(nil), inspection.VisitTypes...)

	t.Run("recognizes all declared types", func(t *testing.T) {
		for _, typ := range declared {
			nv := inspection.NewVisit{TeacherID: "t1", Type: typ, ScheduledAt: tomorrow()}
			assert.NoError(t, nv.Validate(), typ)
		}
		nv := inspection.NewVisit{TeacherID: "t1", Type: "surprise", ScheduledAt: tomorrow()}
		assert.Error(t, nv.Validate())
	})

	// concurrent validations must not touch VisitTypes; run with -race
	t.Run("concurrent validations keep declared order", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					nv := inspection.NewVisit{TeacherID: "t1", Type: inspection.VisitFollowUp, ScheduledAt: tomorrow()}
					_ = nv.Validate()
					bad := inspection.NewVisit{TeacherID: "t1", Type: "surprise", ScheduledAt: tomorrow()}
					_ = bad.Validate()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, declared, inspection.VisitTypes)
	})
}
