// internal/puzzle/puzzle.go
//
// Loads the crossword definition the server plays.
//
// Responsibilities:
//   - Read the puzzle YAML from PUZZLE_FILE, or fall back to the embedded
//     default in assets/puzzle.yaml.
//   - Validate every placement when it is loaded (fields, direction, answer
//     alphabet, unique clue numbers).
//   - Warn about authoring slips the grid builder tolerates: letters that fall
//     off the grid and crossings that disagree on a letter.
//
// File format:
//
//	size: 25
//	placements:
//	  - {id: 1, direction: down, row: 3, col: 5, text: АВЛИГА, clue: "..."}
//
// Constraints:
//   • Answers are upper-case Latin or Cyrillic letters (incl. Ё, Ү, Ө).
//   • Rows and columns are zero-based.

package puzzle

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/crossword/assets"
	"github.com/robalobadob/crossword/internal/game"
)

// Definition is the on-disk shape of a puzzle.
type Definition struct {
	Size       int              `yaml:"size" validate:"gte=1,lte=64"`
	Placements []game.Placement `yaml:"placements" validate:"required,min=1,unique=ID,dive"`
}

var answerRe = regexp.MustCompile(`^[A-ZА-ЯЁҮӨ]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("answer", func(fl validator.FieldLevel) bool {
		return answerRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register answer validation: %v", err))
	}
	return v
}

// Load reads and validates the puzzle at path and builds its board.
// An empty path selects the embedded default.
func Load(path string) (*game.Board, error) {
	var (
		raw []byte
		err error
	)
	if strings.TrimSpace(path) == "" {
		raw, err = assets.DefaultPuzzle()
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read puzzle: %w", err)
	}
	def, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	warnAuthoring(def)
	return game.NewBoard(def.Placements, def.Size), nil
}

// Parse decodes and validates a puzzle document.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("decode puzzle: %w", err)
	}
	if err := validate.Struct(&def); err != nil {
		return nil, fmt.Errorf("invalid puzzle: %s", describe(err))
	}
	return &def, nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := strings.TrimPrefix(fe.Namespace(), "Definition.")
		parts = append(parts, ns+": "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

// warnAuthoring logs letters outside the grid and crossing conflicts.
func warnAuthoring(def *Definition) {
	seen := make(map[game.Position]string)
	for _, p := range def.Placements {
		for i, ch := range []rune(p.Text) {
			at := p.CellAt(i)
			if at.Row < 0 || at.Row >= def.Size || at.Col < 0 || at.Col >= def.Size {
				log.Warn().Int("clue", p.ID).Int("row", at.Row).Int("col", at.Col).Msg("puzzle letter outside grid")
				continue
			}
			letter := string(ch)
			if prev, ok := seen[at]; ok && prev != letter {
				log.Warn().Int("clue", p.ID).Int("row", at.Row).Int("col", at.Col).
					Str("have", prev).Str("want", letter).Msg("puzzle crossing disagrees")
			}
			seen[at] = letter
		}
	}
}
