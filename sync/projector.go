// Package sync implements the one-way sync projector: it rebuilds the
// graph view from the document store, in dependency order, using idempotent
// MERGE semantics so repeated runs over an unchanged document store leave
// the graph unchanged.
package sync

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/model"
	"github.com/Flyns157/API-recommendation/store"
)

// Projector rebuilds store.GraphStore from store.Typed's document store.
type Projector struct {
	docs  *store.Typed
	graph store.GraphStore
	log   *logrus.Entry
}

// New builds a Projector.
func New(docs *store.Typed, graph store.GraphStore, log *logrus.Entry) *Projector {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Projector{docs: docs, graph: graph, log: log.WithField("component", "sync_projector")}
}

// constraints names every uniqueness constraint the graph schema requires.
var constraints = []store.Constraint{
	{Label: model.LabelUser, Property: "id"},
	{Label: model.LabelPost, Property: "id"},
	{Label: model.LabelThread, Property: "id"},
	{Label: model.LabelKey, Property: "id"},
	{Label: model.LabelInterest, Property: "id"},
	{Label: model.LabelRole, Property: "name"},
}

// Run rebuilds the graph in a fixed order: constraints, then
// roles/interests/keys, then users+edges, then threads+edges, then
// posts+edges. Any per-step failure aborts the run with a structured
// ProjectorStepFailed naming the step and offending id; the partial graph
// is left in place since every write is itself idempotent.
func (p *Projector) Run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"ensure_constraints", p.ensureConstraints},
		{"project_roles", p.projectRoles},
		{"project_interests", p.projectInterests},
		{"project_keys", p.projectKeys},
		{"project_users", p.projectUsers},
		{"project_user_edges", p.projectUserEdges},
		{"project_threads", p.projectThreads},
		{"project_thread_edges", p.projectThreadEdges},
		{"project_posts", p.projectPosts},
		{"project_post_edges", p.projectPostEdges},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return apperr.ProjectorStepFailed(s.name, "", err)
		}
		if err := s.fn(ctx); err != nil {
			p.log.WithError(err).WithField("step", s.name).Error("sync step failed")
			return err
		}
		p.log.WithField("step", s.name).Info("sync step complete")
	}
	return nil
}

func (p *Projector) ensureConstraints(ctx context.Context) error {
	if err := p.graph.EnsureConstraints(constraints); err != nil {
		return apperr.ProjectorStepFailed("ensure_constraints", "", err)
	}
	return nil
}

func (p *Projector) run(step string, query string, params map[string]any, offendingID string) error {
	sess, err := p.graph.Session(store.AccessWrite)
	if err != nil {
		return apperr.ProjectorStepFailed(step, offendingID, err)
	}
	defer sess.Close()
	if _, err := sess.Run(query, params); err != nil {
		return apperr.ProjectorStepFailed(step, offendingID, err)
	}
	return nil
}

func (p *Projector) projectRoles(ctx context.Context) error {
	roles, err := p.docs.AllRoles(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_roles", "", err)
	}
	for _, r := range roles {
		err := p.run("project_roles",
			"MERGE (n:"+model.LabelRole+" {name: $name}) SET n += {name: $name}",
			map[string]any{"name": r.Name}, r.Name)
		if err != nil {
			return err
		}
	}
	// Role extension edges: Role-EXTENDS->Role, skipping dangling names.
	for _, r := range roles {
		for _, ext := range r.Extends {
			if ext == r.Name {
				continue
			}
			err := p.edge("project_roles", model.LabelRole, r.Name, model.EdgeExtends, model.LabelRole, ext, "name", "name", r.Name)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Projector) projectInterests(ctx context.Context) error {
	interests, err := p.docs.AllInterests(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_interests", "", err)
	}
	for _, i := range interests {
		err := p.run("project_interests",
			"MERGE (n:"+model.LabelInterest+" {id: $id}) SET n += {id: $id, name: $name}",
			map[string]any{"id": i.ID, "name": i.Name}, i.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) projectKeys(ctx context.Context) error {
	keys, err := p.docs.AllKeys(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_keys", "", err)
	}
	for _, k := range keys {
		err := p.run("project_keys",
			"MERGE (n:"+model.LabelKey+" {id: $id}) SET n += {id: $id, name: $name}",
			map[string]any{"id": k.ID, "name": k.Name}, k.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) projectUsers(ctx context.Context) error {
	users, err := p.docs.AllUsers(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_users", "", err)
	}
	for _, u := range users {
		err := p.run("project_users",
			"MERGE (n:"+model.LabelUser+" {id: $id}) SET n += {id: $id, name: $name, username: $username, description: $description}",
			map[string]any{"id": u.ID, "name": u.Name, "username": u.Username, "description": u.Description}, u.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) projectUserEdges(ctx context.Context) error {
	users, err := p.docs.AllUsers(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_user_edges", "", err)
	}
	for _, u := range users {
		if u.RoleID != "" {
			if err := p.edge("project_user_edges", model.LabelUser, u.ID, model.EdgeHasRole, model.LabelRole, u.RoleID, "id", "name", u.ID); err != nil {
				return err
			}
		}
		for _, f := range u.Follows {
			if f == u.ID {
				continue // a user can never follow or block itself
			}
			if err := p.edge("project_user_edges", model.LabelUser, u.ID, model.EdgeFollows, model.LabelUser, f, "id", "id", u.ID); err != nil {
				return err
			}
		}
		for _, b := range u.Blocks {
			if b == u.ID {
				continue // a user can never follow or block itself
			}
			if err := p.edge("project_user_edges", model.LabelUser, u.ID, model.EdgeBlocks, model.LabelUser, b, "id", "id", u.ID); err != nil {
				return err
			}
		}
		for _, in := range u.Interests {
			if err := p.edge("project_user_edges", model.LabelUser, u.ID, model.EdgeInterestedBy, model.LabelInterest, in, "id", "id", u.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Projector) projectThreads(ctx context.Context) error {
	threads, err := p.docs.AllThreads(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_threads", "", err)
	}
	for _, th := range threads {
		err := p.run("project_threads",
			"MERGE (n:"+model.LabelThread+" {id: $id}) SET n += {id: $id, name: $name}",
			map[string]any{"id": th.ID, "name": th.Name}, th.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) projectThreadEdges(ctx context.Context) error {
	threads, err := p.docs.AllThreads(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_thread_edges", "", err)
	}
	for _, th := range threads {
		if th.OwnerID != "" {
			if err := p.edge("project_thread_edges", model.LabelUser, th.OwnerID, model.EdgeOwns, model.LabelThread, th.ID, "id", "id", th.ID); err != nil {
				return err
			}
		}
		for _, m := range th.Members {
			if err := p.edge("project_thread_edges", model.LabelUser, m, model.EdgeMemberOf, model.LabelThread, th.ID, "id", "id", th.ID); err != nil {
				return err
			}
		}
		for _, a := range th.Admins {
			if err := p.edge("project_thread_edges", model.LabelUser, a, model.EdgeAdminOf, model.LabelThread, th.ID, "id", "id", th.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Projector) projectPosts(ctx context.Context) error {
	posts, err := p.docs.AllPosts(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_posts", "", err)
	}
	for _, post := range posts {
		err := p.run("project_posts",
			"MERGE (n:"+model.LabelPost+" {id: $id}) SET n += {id: $id, title: $title, content: $content}",
			map[string]any{"id": post.ID, "title": post.Title, "content": post.Content}, post.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) projectPostEdges(ctx context.Context) error {
	posts, err := p.docs.AllPosts(ctx)
	if err != nil {
		return apperr.ProjectorStepFailed("project_post_edges", "", err)
	}
	for _, post := range posts {
		if post.AuthorID != "" {
			if err := p.edge("project_post_edges", model.LabelUser, post.AuthorID, model.EdgeWritedBy, model.LabelPost, post.ID, "id", "id", post.ID); err != nil {
				return err
			}
		}
		if post.ThreadID != "" {
			if err := p.edge("project_post_edges", model.LabelPost, post.ID, model.EdgePostedIn, model.LabelThread, post.ThreadID, "id", "id", post.ID); err != nil {
				return err
			}
		}
		for _, k := range post.Keys {
			if err := p.edge("project_post_edges", model.LabelPost, post.ID, model.EdgeHasKey, model.LabelKey, k, "id", "id", post.ID); err != nil {
				return err
			}
		}
		for _, l := range post.Likers {
			if err := p.edge("project_post_edges", model.LabelUser, l, model.EdgeLikes, model.LabelPost, post.ID, "id", "id", post.ID); err != nil {
				return err
			}
		}
		for _, c := range post.Commenters {
			if err := p.edge("project_post_edges", model.LabelUser, c, model.EdgeHasComment, model.LabelPost, post.ID, "id", "id", post.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// edge MERGEs a single relationship between two nodes matched by property.
// Missing endpoints simply make the MATCH return no rows, so a dangling id
// silently produces no edge rather than failing the step.
func (p *Projector) edge(step, fromLabel, fromID, edgeLabel, toLabel, toID, fromProp, toProp, offendingID string) error {
	query := "MATCH (a:" + fromLabel + " {" + fromProp + ": $from}), (b:" + toLabel + " {" + toProp + ": $to}) " +
		"MERGE (a)-[:" + edgeLabel + "]->(b)"
	return p.run(step, query, map[string]any{"from": fromID, "to": toID}, offendingID)
}
