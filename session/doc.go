// Package session ties the wizard router, the autosave persister and the
// profile draft together.
//
// A Session gates forward navigation on the draft: a step can be entered
// once every earlier section holds at least one valid entry. Every edit and
// every step change is handed to the persister, so a user who leaves and
// comes back resumes on the same step with the same data.
//
//	store, _ := session.OpenStore(cfg.Autosave, nil)
//	s, _ := session.New(key, store, session.WithAutosave(session.AutosaveOptions(cfg.Autosave)...))
//	_ = s.Start(ctx)
//	s.Update(func(d *session.Draft) { d.Skills = append(d.Skills, skill) })
//	if r := s.Next(); !r.Moved() {
//		fmt.Println(s.Missing(s.Position().Step + 1))
//	}
//	defer s.Leave(ctx)
package session
