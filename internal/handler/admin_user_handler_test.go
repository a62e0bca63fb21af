package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestAdminCreateAndListUsers(t *testing.T) {
	_, router, gdb, cleanup := setupAPITest(t)
	defer cleanup()

	seedTestUser(t, gdb, "admin", "ADMIN00000000001", true)
	cookies := loginAs(t, router, "ADMIN00000000001")

	recorder := doJSON(t, router, http.MethodPost, "/api/admin/users", `{"username":"小明"}`, cookies)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var created map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	code, _ := created["login_code"].(string)
	if len(code) != 16 {
		t.Fatalf("expected generated 16-character login code, got %q", code)
	}

	// 新用户可以直接用返回的登录码登录
	loginAs(t, router, code)

	recorder = doJSON(t, router, http.MethodPost, "/api/admin/users", `{"username":"小明"}`, cookies)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for duplicate username, got %d", recorder.Code)
	}

	recorder = doJSON(t, router, http.MethodGet, "/api/admin/users", "", cookies)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var users []map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &users); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[1]["login_code"] != code {
		t.Fatalf("expected login code in admin listing, got %v", users[1]["login_code"])
	}
}

func TestAdminSearchUsersOmitsLoginCode(t *testing.T) {
	_, router, gdb, cleanup := setupAPITest(t)
	defer cleanup()

	seedTestUser(t, gdb, "admin", "ADMIN00000000002", true)
	seedTestUser(t, gdb, "小明", "ADMIN00000000003", false)
	cookies := loginAs(t, router, "ADMIN00000000002")

	recorder := doJSON(t, router, http.MethodGet, "/api/admin/users/search?term=小明", "", cookies)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var users []map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &users); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 match, got %d", len(users))
	}
	if _, present := users[0]["login_code"]; present {
		t.Fatal("expected search results without login codes")
	}

	recorder = doJSON(t, router, http.MethodGet, "/api/admin/users/search?term=", "", cookies)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty term, got %d", recorder.Code)
	}
}

func TestAdminUpdateAndDeleteUser(t *testing.T) {
	_, router, gdb, cleanup := setupAPITest(t)
	defer cleanup()

	admin := seedTestUser(t, gdb, "admin", "ADMIN00000000004", true)
	user := seedTestUser(t, gdb, "小明", "ADMIN00000000005", false)
	cookies := loginAs(t, router, "ADMIN00000000004")

	recorder := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", user.ID), `{"username":"小明二号","is_admin":true}`, cookies)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["username"] != "小明二号" || payload["is_admin"] != true {
		t.Fatalf("unexpected updated user: %v", payload)
	}

	// 管理员账号不可删除
	recorder = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), "", cookies)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 deleting admin, got %d", recorder.Code)
	}

	// 先把测试用户降回普通用户再删除
	recorder = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", user.ID), `{"is_admin":false}`, cookies)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	recorder = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", user.ID), "", cookies)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/admin/users/%d", user.ID), "", cookies)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", recorder.Code)
	}
}

func TestAdminResetLoginCode(t *testing.T) {
	_, router, gdb, cleanup := setupAPITest(t)
	defer cleanup()

	seedTestUser(t, gdb, "admin", "ADMIN00000000006", true)
	user := seedTestUser(t, gdb, "小明", "ADMIN00000000007", false)
	cookies := loginAs(t, router, "ADMIN00000000006")

	recorder := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reset-code", user.ID), "", cookies)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	code, _ := payload["login_code"].(string)
	if len(code) != 16 || code == "ADMIN00000000007" {
		t.Fatalf("expected fresh login code, got %q", code)
	}

	// 旧码失效，新码可登录
	recorder = doJSON(t, router, http.MethodPost, "/api/auth/login", `{"login_code":"ADMIN00000000007"}`, nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected old code rejected, got %d", recorder.Code)
	}
	loginAs(t, router, code)
}
