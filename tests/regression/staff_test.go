package regression

import (
	"net/http"
	"testing"
)

// ============================================================================
// 员工名册与备注回归测试
// ============================================================================

// approvedStaffToken 准备一个已审批员工并返回其令牌和 id
func approvedStaffToken(t *testing.T, admin, email string) (string, string) {
	t.Helper()
	staffID := registerStaff(t, "Tom Teacher", email)
	if w := makeAuthedRequest("POST", "/api/v1/admin/users/"+staffID+"/approve", nil, admin); w.Code != http.StatusOK {
		t.Fatalf("approve status = %d", w.Code)
	}
	return login(t, email, "pw123"), staffID
}

// TestStaff_AccessGating 测试员工接口的审批状态门禁
func TestStaff_AccessGating(t *testing.T) {
	resetState(t)
	admin := adminToken(t)

	t.Run("待审批员工无数据访问", func(t *testing.T) {
		registerStaff(t, "Pending P", "pending@example.com")
		tok := login(t, "pending@example.com", "pw123")
		w := makeAuthedRequest("GET", "/api/v1/staff/roster", nil, tok)
		if w.Code != http.StatusForbidden {
			t.Errorf("roster status = %d, want 403", w.Code)
		}
	})

	t.Run("被拒员工无数据访问", func(t *testing.T) {
		id := registerStaff(t, "Rejected R", "rejected@example.com")
		makeAuthedRequest("POST", "/api/v1/admin/users/"+id+"/reject", nil, admin)
		tok := login(t, "rejected@example.com", "pw123")
		w := makeAuthedRequest("GET", "/api/v1/staff/roster", nil, tok)
		if w.Code != http.StatusForbidden {
			t.Errorf("roster status = %d, want 403", w.Code)
		}
	})

	t.Run("学员无员工接口访问", func(t *testing.T) {
		id := registerStudent(t, "Alice", "alice@example.com")
		makeAuthedRequest("POST", "/api/v1/admin/users/"+id+"/activate", nil, admin)
		tok := login(t, "alice@example.com", "pw123")
		w := makeAuthedRequest("GET", "/api/v1/staff/roster", nil, tok)
		if w.Code != http.StatusForbidden {
			t.Errorf("roster status = %d, want 403", w.Code)
		}
	})
}

// TestStaff_Roster 测试教师名册
func TestStaff_Roster(t *testing.T) {
	resetState(t)
	admin := adminToken(t)
	staffTok, staffID := approvedStaffToken(t, admin, "tom@example.com")

	// 两个时段：一个归属当前教师，一个无人认领
	mySlot := createSlot(t, admin, "Morning A", "08:00", "10:00")
	otherSlot := createSlot(t, admin, "Evening Z", "18:00", "20:00")
	w := makeRequestWithString("PATCH", "/api/v1/admin/slots/"+mySlot,
		`{"teacher_id":"`+staffID+`"}`, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("set teacher status = %d", w.Code)
	}

	// 三个学员：两个指派到我的时段，一个指派到别的时段
	for _, s := range []struct{ name, email, slot string }{
		{"Alice", "alice@example.com", mySlot},
		{"Bob", "bob@example.com", mySlot},
		{"Carol", "carol@example.com", otherSlot},
	} {
		id := registerStudent(t, s.name, s.email)
		makeAuthedRequest("POST", "/api/v1/admin/users/"+id+"/assign-slot",
			map[string]string{"slot_id": s.slot}, admin)
	}

	w = makeAuthedRequest("GET", "/api/v1/staff/roster", nil, staffTok)
	if w.Code != http.StatusOK {
		t.Fatalf("roster status = %d - %s", w.Code, w.Body.String())
	}
	resp := parseJSONResponse(w)
	roster, _ := resp["roster"].([]interface{})
	if len(roster) != 1 {
		t.Fatalf("roster entries = %d, want 1", len(roster))
	}
	entry, _ := roster[0].(map[string]interface{})
	students, _ := entry["students"].([]interface{})
	if len(students) != 2 {
		t.Fatalf("students = %d, want 2", len(students))
	}
	for _, s := range students {
		stu, _ := s.(map[string]interface{})
		// 名册中的学员记录不得携带口令
		if pw, ok := stu["password"]; ok && pw != "" {
			t.Errorf("password leaked in roster: %v", pw)
		}
	}
	all, _ := resp["students"].([]interface{})
	if len(all) != 3 {
		t.Errorf("students list = %d, want 3", len(all))
	}
}

// TestStaff_StudentNotes 测试员工给学员追加备注
func TestStaff_StudentNotes(t *testing.T) {
	resetState(t)
	admin := adminToken(t)
	staffTok, staffID := approvedStaffToken(t, admin, "tom@example.com")
	subID := registerStudent(t, "Alice", "alice@example.com")

	t.Run("追加备注", func(t *testing.T) {
		w := makeAuthedRequest("POST", "/api/v1/staff/students/"+subID+"/notes",
			map[string]string{"text": "needs extra practice"}, staffTok)
		if w.Code != http.StatusOK {
			t.Fatalf("note status = %d - %s", w.Code, w.Body.String())
		}
		resp := parseJSONResponse(w)
		notes, _ := resp["notes"].([]interface{})
		if len(notes) != 1 {
			t.Fatalf("notes = %d, want 1", len(notes))
		}
		note, _ := notes[0].(map[string]interface{})
		if note["author_id"] != staffID {
			t.Errorf("author_id = %v, want %s", note["author_id"], staffID)
		}
		if note["author_name"] != "Tom Teacher" {
			t.Errorf("author_name = %v", note["author_name"])
		}
	})

	t.Run("署名优先 display_name", func(t *testing.T) {
		w := makeRequestWithString("PATCH", "/api/v1/admin/users/"+staffID,
			`{"display_name":"Mr. Tom"}`, admin)
		if w.Code != http.StatusOK {
			t.Fatalf("patch status = %d", w.Code)
		}
		w = makeAuthedRequest("POST", "/api/v1/staff/students/"+subID+"/notes",
			map[string]string{"text": "improving"}, staffTok)
		resp := parseJSONResponse(w)
		notes, _ := resp["notes"].([]interface{})
		last, _ := notes[len(notes)-1].(map[string]interface{})
		if last["author_name"] != "Mr. Tom" {
			t.Errorf("author_name = %v, want Mr. Tom", last["author_name"])
		}
	})

	t.Run("目标必须是学员", func(t *testing.T) {
		w := makeAuthedRequest("POST", "/api/v1/staff/students/admin-1/notes",
			map[string]string{"text": "nope"}, staffTok)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}
