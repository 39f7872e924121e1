package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/kbukum/profilewizard/autosave"
	"github.com/kbukum/profilewizard/catalog"
	"github.com/kbukum/profilewizard/condcache"
	"github.com/kbukum/profilewizard/session"
	"github.com/kbukum/profilewizard/validation"
	"github.com/kbukum/profilewizard/wizard"
)

const replHelp = `Commands:
  show                                      current step, save status and draft
  next | prev | jump <step>                 navigate (step is a number or a name)
  missing [step]                            what blocks entering step (default: next)
  skill <name> | <level 1-5> | <years>      add a skill
  experience <company> | <role> | <start> [| <end>]
  education <school> | <degree> [| <field>]
  remove <skills|experience|education> <n>  remove entry n (1-based)
  tech [refresh]                            list the technology catalog
  save                                      write the draft now
  discard                                   delete the saved draft and quit
  quit                                      save and quit`

// repl drives a session from line commands.
type repl struct {
	sess *session.Session
	cat  *catalog.Client
	out  io.Writer
	term *termenv.Output
}

func newREPL(sess *session.Session, cat *catalog.Client, out io.Writer) *repl {
	return &repl{sess: sess, cat: cat, out: out, term: termenv.NewOutput(out)}
}

// Run reads commands from in until quit, end of input or ctx is done.
func (r *repl) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	r.show()
	for {
		fmt.Fprint(r.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := r.exec(ctx, line)
			if err != nil {
				fmt.Fprintln(r.out, r.term.String("error: "+err.Error()).Foreground(r.term.Color("1")))
			}
			if quit {
				return nil
			}
		}
	}
}

// exec runs one command. Input errors are returned for display; they never
// end the loop.
func (r *repl) exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "help", "?":
		fmt.Fprintln(r.out, replHelp)
	case "show":
		r.show()
	case "next":
		target := r.sess.Position().Step + 1
		r.report(r.sess.Next(), target)
	case "prev", "back":
		target := r.sess.Position().Step - 1
		r.report(r.sess.Prev(), target)
	case "jump":
		step, err := parseStep(rest)
		if err != nil {
			return false, err
		}
		r.report(r.sess.Jump(step), step)
	case "missing":
		step := r.sess.Position().Step + 1
		if rest != "" {
			if step, err = parseStep(rest); err != nil {
				return false, err
			}
		}
		r.printMissing(step)
	case "skill":
		return false, r.addSkill(rest)
	case "experience":
		return false, r.addExperience(rest)
	case "education":
		return false, r.addEducation(rest)
	case "remove":
		return false, r.remove(rest)
	case "tech":
		return false, r.technologies(ctx, rest == "refresh")
	case "save":
		if err := r.sess.Save(ctx); err != nil {
			return false, err
		}
		r.printStatus()
	case "discard":
		if err := r.sess.Discard(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "saved draft discarded")
		return true, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

func (r *repl) show() {
	pos := r.sess.Position()
	fmt.Fprintf(r.out, "Step %d/%d: %s  ", pos.Step+1, pos.Total, session.StepName(pos.Step))
	r.printStatus()

	d := r.sess.Draft()
	fmt.Fprintf(r.out, "  skills (%d)\n", len(d.Skills))
	for i, s := range d.Skills {
		fmt.Fprintf(r.out, "    %d. %s, level %d, %dy\n", i+1, s.Name, s.Level, s.Years)
	}
	fmt.Fprintf(r.out, "  experience (%d)\n", len(d.Experience))
	for i, e := range d.Experience {
		end := "now"
		if e.EndYear != 0 {
			end = strconv.Itoa(e.EndYear)
		} else if !e.Current {
			end = "?"
		}
		fmt.Fprintf(r.out, "    %d. %s at %s, %d-%s\n", i+1, e.Role, e.Company, e.StartYear, end)
	}
	fmt.Fprintf(r.out, "  education (%d)\n", len(d.Education))
	for i, e := range d.Education {
		fmt.Fprintf(r.out, "    %d. %s, %s\n", i+1, e.Degree, e.School)
	}
}

func (r *repl) printStatus() {
	status := r.sess.Status()
	label := "[" + status.String() + "]"
	if status == autosave.StatusSaved {
		label = fmt.Sprintf("[saved %s]", r.sess.SavedAt().Local().Format("15:04:05"))
	}
	if status == autosave.StatusError && r.sess.Err() != nil {
		label = "[not saved: " + r.sess.Err().Error() + "]"
	}
	fmt.Fprintln(r.out, r.term.String(label).Foreground(r.term.Color(statusColor(status))))
}

func statusColor(s autosave.Status) string {
	switch s {
	case autosave.StatusSaved:
		return "2"
	case autosave.StatusPending, autosave.StatusSaving:
		return "3"
	case autosave.StatusError:
		return "1"
	default:
		return "8"
	}
}

func (r *repl) report(res wizard.Result, target int) {
	switch res {
	case wizard.ResultMoved:
		r.show()
	case wizard.ResultBlocked:
		fmt.Fprintf(r.out, "cannot enter %s yet:\n", session.StepName(target))
		r.printMissing(target)
	case wizard.ResultNoop:
		fmt.Fprintln(r.out, "already there")
	case wizard.ResultOutOfRange:
		fmt.Fprintf(r.out, "no step %d\n", target+1)
	}
}

func (r *repl) printMissing(step int) {
	missing := r.sess.Missing(step)
	if len(missing) == 0 {
		fmt.Fprintln(r.out, "  nothing missing")
		return
	}
	for _, m := range missing {
		fmt.Fprintln(r.out, "  - "+m)
	}
}

func (r *repl) addSkill(args string) error {
	f := fields(args, 3, 3)
	if f == nil {
		return fmt.Errorf("usage: skill <name> | <level> | <years>")
	}
	c := validation.New()
	sk := session.Skill{Name: f[0], Level: c.Int("level", f[1]), Years: c.Int("years", f[2])}
	if err := c.Validate(); err != nil {
		return err
	}
	r.sess.Update(func(d *session.Draft) { d.Skills = append(d.Skills, sk) })
	r.printStatus()
	return nil
}

func (r *repl) addExperience(args string) error {
	f := fields(args, 3, 4)
	if f == nil {
		return fmt.Errorf("usage: experience <company> | <role> | <start> [| <end>]")
	}
	c := validation.New()
	e := session.Experience{Company: f[0], Role: f[1], StartYear: c.Int("start", f[2]), Current: len(f) == 3}
	if len(f) == 4 {
		e.EndYear = c.Int("end", f[3])
	}
	if err := c.Validate(); err != nil {
		return err
	}
	r.sess.Update(func(d *session.Draft) { d.Experience = append(d.Experience, e) })
	r.printStatus()
	return nil
}

func (r *repl) addEducation(args string) error {
	f := fields(args, 2, 3)
	if f == nil {
		return fmt.Errorf("usage: education <school> | <degree> [| <field>]")
	}
	e := session.Education{School: f[0], Degree: f[1]}
	if len(f) == 3 {
		e.Field = f[2]
	}
	r.sess.Update(func(d *session.Draft) { d.Education = append(d.Education, e) })
	r.printStatus()
	return nil
}

func (r *repl) remove(args string) error {
	section, idxText, _ := strings.Cut(args, " ")
	d := r.sess.Draft()
	counts := map[string]int{"skills": len(d.Skills), "experience": len(d.Experience), "education": len(d.Education)}

	c := validation.New()
	c.OneOf("section", section, "skills", "experience", "education")
	n := c.Int("n", idxText)
	c.Range("n", n, 1, max(counts[section], 1))
	if err := c.Validate(); err != nil {
		return err
	}
	if counts[section] == 0 {
		return fmt.Errorf("no %s entry %d", section, n)
	}

	i := n - 1
	r.sess.Update(func(d *session.Draft) {
		switch section {
		case "skills":
			d.Skills = slices.Delete(d.Skills, i, i+1)
		case "experience":
			d.Experience = slices.Delete(d.Experience, i, i+1)
		case "education":
			d.Education = slices.Delete(d.Education, i, i+1)
		}
	})
	r.printStatus()
	return nil
}

func (r *repl) technologies(ctx context.Context, refresh bool) error {
	if r.cat == nil {
		return fmt.Errorf("catalog unavailable")
	}
	var opts []condcache.RequestOption
	if refresh {
		opts = append(opts, condcache.WithForce())
	}
	techs, err := r.cat.ListTechnologies(ctx, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%d technologies\n", len(techs))
	for _, t := range techs {
		fmt.Fprintf(r.out, "  %s (%s)\n", t.Name, t.Category)
	}
	return nil
}

// fields splits "a | b | c" and returns nil unless the count is within
// [lo, hi] and no field is empty.
func fields(s string, lo, hi int) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	if len(parts) < lo || len(parts) > hi {
		return nil
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil
		}
	}
	return parts
}

// parseStep accepts a 1-based step number or a step name.
func parseStep(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for step := range session.StepCount {
		if session.StepName(step) == s {
			return step, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown step %q", s)
	}
	return n - 1, nil
}
