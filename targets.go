package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tigrawap/goxattr/utils"
)

const LETTERS = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const NUMS = "0123456789"

// attrTarget is one attribute: a file and a name on it.
type attrTarget struct {
	path string
	name string
}

func randRunes(n int, letters string) []rune {
	r := make([]rune, n)
	for i := range r {
		r[i] = rune(letters[utils.Intn(len(letters))])
	}
	return r
}

func startingSequenceLength(s []rune, startsWith rune) int {
	matched := 0
	for _, char := range s {
		if char != startsWith {
			break
		}
		matched++
	}
	return matched
}

type replacementFunc func(requestNum int64) []rune

type templatePart struct {
	length          int
	offset          int
	replacementFunc replacementFunc
}

type templatePartMatcher interface {
	isMatching([]rune) (matchedLength int)
	makeReplacementFunc([]rune) replacementFunc
}

// runMatcher matches runs of at least two identical marker runes.
type runMatcher struct {
	marker  rune
	replace func(length int) replacementFunc
}

func (m *runMatcher) isMatching(s []rune) (matchedLength int) {
	matched := startingSequenceLength(s, m.marker)
	if matched > 1 {
		return matched
	}
	return 0
}

func (m *runMatcher) makeReplacementFunc(rr []rune) replacementFunc {
	return m.replace(len(rr))
}

func randomReplacement(letters string) func(int) replacementFunc {
	return func(length int) replacementFunc {
		return func(requestNum int64) []rune {
			return randRunes(length, letters)
		}
	}
}

func incrementalReplacement(length int) replacementFunc {
	format := fmt.Sprintf("%%0%dd", length)
	limiter := int64(math.Pow(10.0, float64(length)))
	return func(requestNum int64) []rune {
		return []rune(fmt.Sprintf(format, requestNum%limiter))
	}
}

var templatePartMatchers = []templatePartMatcher{
	&runMatcher{'N', randomReplacement(NUMS)},
	&runMatcher{'R', randomReplacement(LETTERS)},
	&runMatcher{'X', incrementalReplacement},
}

type templateFormatter struct {
	base          []rune
	templateParts []templatePart
}

// newTemplateFormatter parses XX.. (request number), NN.. (random digits)
// and RR.. (random letters) runs out of template.
func newTemplateFormatter(template string) *templateFormatter {
	rtemplate := []rune(template)
	formatter := templateFormatter{
		base: rtemplate,
	}

	for i := 0; i < len(rtemplate); i++ {
		for _, matcher := range templatePartMatchers {
			if matched := matcher.isMatching(rtemplate[i:]); matched != 0 {
				formatter.templateParts = append(formatter.templateParts, templatePart{
					offset:          i,
					length:          matched,
					replacementFunc: matcher.makeReplacementFunc(rtemplate[i : i+matched]),
				})
				i += matched - 1
				break
			}
		}
	}
	return &formatter
}

func (f *templateFormatter) format(requestNum int64) string {
	rr := make([]rune, len(f.base))
	copy(rr, f.base)
	for _, part := range f.templateParts {
		for i, replacementPart := range part.replacementFunc(requestNum) {
			rr[part.offset+i] = replacementPart
		}
	}
	return string(rr)
}

// TemplatedTarget formats the path and name templates with the same request
// number, so XXXX in both refer to the same request.
type TemplatedTarget struct {
	targets chan attrTarget
	path    *templateFormatter
	name    *templateFormatter
}

func (t *TemplatedTarget) get() attrTarget {
	return <-t.targets
}

func newTemplatedTarget(pathTemplate, nameTemplate string) *TemplatedTarget {
	t := TemplatedTarget{
		path:    newTemplateFormatter(pathTemplate),
		name:    newTemplateFormatter(nameTemplate),
		targets: make(chan attrTarget, 1000),
	}
	go func() {
		n := int64(0)
		for {
			n++
			t.targets <- attrTarget{path: t.path.format(n), name: t.name.format(n)}
		}
	}()
	return &t
}

// SourceFileTarget replays targets from a file, looping forever. Each line is
// "path" or "path<TAB>name"; lines without a name use the name template.
type SourceFileTarget struct {
	file    string
	name    *templateFormatter
	targets chan attrTarget
}

func (s *SourceFileTarget) get() attrTarget {
	return <-s.targets
}

func parseTargetLine(line string, name *templateFormatter, n int64) (attrTarget, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return attrTarget{}, false
	}
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		return attrTarget{path: utils.GetAbsolute(line[:i]), name: line[i+1:]}, true
	}
	return attrTarget{path: utils.GetAbsolute(strings.TrimSpace(line)), name: name.format(n)}, true
}

func (s *SourceFileTarget) keepPopulated(file *os.File) {
	defer file.Close()
	n := int64(0)
	for {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			log.Errorf("Rewinding %s: %v", s.file, err)
			return
		}
		r := bufio.NewReaderSize(file, 64*1024)
		produced := false
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				n++
				if target, ok := parseTargetLine(line, s.name, n); ok {
					s.targets <- target
					produced = true
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Errorf("Reading %s: %v", s.file, err)
				return
			}
		}
		if !produced {
			log.Errorf("No targets in %s", s.file)
			return
		}
	}
}

func newSourceFileTarget(sourceFile, nameTemplate string) (*SourceFileTarget, error) {
	file, err := os.Open(sourceFile)
	if err != nil {
		return nil, errors.Wrap(err, "path-source")
	}
	s := SourceFileTarget{
		file:    sourceFile,
		name:    newTemplateFormatter(nameTemplate),
		targets: make(chan attrTarget, 1000),
	}
	go s.keepPopulated(file)
	return &s, nil
}

func selectTargetByConfig() (Target, error) {
	if config.pathSourceFile != EmptyString {
		return newSourceFileTarget(config.pathSourceFile, config.name)
	}
	if config.path != EmptyString {
		return newTemplatedTarget(config.path, config.name), nil
	}
	return nil, errors.New("none of --path/--path-source supplied")
}

// BoundTarget picks randomly among the targets written so far. Once stop is
// closed with nothing written it yields the zero target, which fails fast.
type BoundTarget struct {
	bound *[]attrTarget
	sync  sync.Locker
	stop  <-chan struct{}
}

func (b *BoundTarget) get() attrTarget {
	for {
		b.sync.Lock()
		targets := *b.bound
		if len(targets) == 0 {
			b.sync.Unlock()
			select {
			case <-b.stop:
				return attrTarget{}
			case <-time.After(time.Millisecond):
			}
			continue
		}
		t := targets[utils.Intn(len(targets))]
		b.sync.Unlock()
		return t
	}
}

// dumpWrittenTargets writes targets in the --path-source line format.
// Targets whose path or name holds a tab or newline cannot be read back and
// are skipped.
func dumpWrittenTargets(goodTargets []attrTarget) error {
	if config.writtenTargetsDump == EmptyString {
		return nil
	}
	skipped := 0
	defer func() {
		if skipped > 0 {
			log.Warnf("Skipped %d written targets with a tab or newline in path or name", skipped)
		}
	}()
	f, err := os.Create(config.writtenTargetsDump)
	if err != nil {
		return errors.Wrap(err, "dump written targets")
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1024*64)
	for _, t := range goodTargets {
		if strings.ContainsAny(t.path, "\t\n") || strings.ContainsAny(t.name, "\t\n") {
			skipped++
			continue
		}
		if _, err := w.WriteString(t.path + "\t" + t.name + "\n"); err != nil {
			return errors.Wrap(err, "dump written targets")
		}
	}
	return errors.Wrap(w.Flush(), "dump written targets")
}
