package header

// Parser applies a format's rule tables to header lines. It holds no
// mutable state and may be shared between goroutines.
type Parser struct {
	format *Format
	env    Env
}

// NewParser returns a parser for f. policy decides how repeated cast lines
// accumulate; nil keeps every distinct cast.
func NewParser(f *Format, policy CastPolicy) *Parser {
	if policy == nil {
		policy = DistinctCasts
	}
	return &Parser{
		format: f,
		env:    Env{Casts: policy, ScanInterval: f.ScanInterval},
	}
}

// Parse extracts a record from the header lines of one section.
func (p *Parser) Parse(lines []string, section Kind) *Record {
	r := NewRecord()
	p.ParseInto(r, lines, section)
	return r
}

// ParseSections parses the instrument section then the processed section
// into a single record.
func (p *Parser) ParseSections(s *Sections) *Record {
	r := NewRecord()
	p.ParseInto(r, s.Instrument, Instrument)
	p.ParseInto(r, s.Processed, Processed)
	return r
}

// ParseInto applies the section's rules to lines, updating r. For each line
// only the first matching rule runs. Lines no rule matches are ignored.
func (p *Parser) ParseInto(r *Record, lines []string, section Kind) {
	rules := p.format.Rules(section)
	for _, line := range lines {
		for _, rl := range rules {
			m := rl.Pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			// Captured text that fails to convert leaves the line unrecognised.
			if apply, err := rl.Handle(m, p.env); err == nil {
				apply(r)
			}
			break
		}
	}
}

// Match reports which rule, if any, claims line in the given section.
func (p *Parser) Match(line string, section Kind) (Rule, bool) {
	for _, rl := range p.format.Rules(section) {
		if rl.Pattern.MatchString(line) {
			return rl, true
		}
	}
	return Rule{}, false
}
