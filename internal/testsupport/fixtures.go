// fixtures.go
//
// A document authoring service that drafts and refines content with an LLM
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of docauthor.
// docauthor is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// docauthor is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with docauthor.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testsupport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/docauthor/internal/llm"
	"github.com/localnerve/docauthor/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser stores a user whose password is "password"
func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{Email: email, HashedPassword: string(hash)}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateProject stores a project for owner with optional legacy titles
func CreateProject(t testing.TB, db *gorm.DB, ownerID uint64, title, documentType string, legacy ...string) *models.Project {
	t.Helper()
	project := &models.Project{Title: title, DocumentType: documentType, OwnerID: ownerID}
	if len(legacy) > 0 {
		if err := project.SetLegacyTitles(legacy); err != nil {
			t.Fatalf("Failed to set legacy titles: %v", err)
		}
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return project
}

// CreateSection stores a section with content directly, bypassing generation
func CreateSection(t testing.TB, db *gorm.DB, projectID uint64, order int, title, content string) *models.DocumentSection {
	t.Helper()
	section := &models.DocumentSection{ProjectID: projectID, SectionOrder: order, Title: title, Content: &content}
	if err := db.Create(section).Error; err != nil {
		t.Fatalf("Failed to create section: %v", err)
	}
	return section
}

// FakeGateway is a scripted content gateway that records every call
type FakeGateway struct {
	mu sync.Mutex

	// Outline is returned by SuggestOutline
	Outline []string
	// Failing titles get the generation fallback content
	Failing map[string]bool
	// FailRefine makes RefineSection return the refinement fallback content
	FailRefine bool
	// Delay is slept (honouring the context) before each generation
	Delay time.Duration

	Generated []string
	Refined   []string
	CallTimes []time.Time
}

// SuggestOutline implements services.ContentGateway
func (f *FakeGateway) SuggestOutline(_ context.Context, _, _ string) []string {
	if f.Outline == nil {
		return []string{}
	}
	return f.Outline
}

// GenerateSection implements services.ContentGateway
func (f *FakeGateway) GenerateSection(ctx context.Context, mainTopic, sectionTitle string) string {
	f.mu.Lock()
	f.Generated = append(f.Generated, sectionTitle)
	f.CallTimes = append(f.CallTimes, time.Now())
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-ctx.Done():
			return llm.GenerateSentinel
		case <-time.After(f.Delay):
		}
	}
	if f.Failing[sectionTitle] {
		return llm.GenerateSentinel
	}
	return "Content for " + sectionTitle + " about " + mainTopic
}

// RefineSection implements services.ContentGateway
func (f *FakeGateway) RefineSection(_ context.Context, content, instruction string) string {
	f.mu.Lock()
	f.Refined = append(f.Refined, content)
	f.mu.Unlock()

	if f.FailRefine {
		return llm.RefineSentinel
	}
	return content + " [" + instruction + "]"
}

// Calls returns how many sections were generated
func (f *FakeGateway) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Generated)
}

// ParseJSON decodes the response body into the target
func ParseJSON(t testing.TB, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	defer resp.Body.Close()

	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("Failed to decode JSON: %v. Body: %s", err, string(body))
	}
}
