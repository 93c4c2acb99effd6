package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Observable and list protocol (L001-L099)
	// ============================================

	"L001": {
		Category: CategoryBorrow,
		Message:  "Exclusive borrow while borrowed",
		Detail:   "BorrowMut was called while another shared or exclusive borrow of the same cell was still outstanding.",
	},
	"L002": {
		Category: CategoryBorrow,
		Message:  "Shared borrow while mutably borrowed",
		Detail:   "Borrow was called while an exclusive borrow of the same cell was still outstanding.",
	},
	"L003": {
		Category: CategoryBorrow,
		Message:  "Borrow used after release",
		Detail:   "A Ref or RefMut was read or written after Release.",
	},
	"L010": {
		Category: CategoryList,
		Message:  "Change record out of range",
		Detail:   "A change record addresses an index outside the collection it is applied to.",
	},
	"L011": {
		Category: CategoryList,
		Message:  "List index out of range",
		Detail:   "An editor operation addressed an index outside the list.",
	},

	// ============================================
	// Scoped spawning (S001-S099)
	// ============================================

	"S001": {
		Category: CategorySpawn,
		Message:  "Spawned outside its scope",
		Detail:   "A scoped future was first polled while its owning scope was not active on the current goroutine.",
	},
	"S002": {
		Category: CategorySpawn,
		Message:  "Polled after Ready returned",
		Detail:   "A scoped future or its remote handle was polled again after it had produced its result.",
	},
	"S003": {
		Category: CategorySpawn,
		Message:  "Polled after abort",
		Detail:   "The owner of a scoped future was polled after it had been closed.",
	},
	"S004": {
		Category: CategorySpawn,
		Message:  "Remote polled before spawn",
		Detail:   "A remote handle was polled before its owner had been attached to a scope.",
	},
	"S005": {
		Category: CategorySpawn,
		Message:  "Re-entrant access to a scoped future",
		Detail:   "The shared state of a scoped future was accessed while it was already being polled or closed.",
	},
	"S006": {
		Category: CategorySpawn,
		Message:  "Scope disposed",
		Detail:   "A future was spawned into a scope that has already been disposed.",
	},
	"S007": {
		Category: CategorySpawn,
		Message:  "No spawner configured",
		Detail:   "A list reconciler was created without a function to spawn its item tasks.",
	},

	// ============================================
	// Executor (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryExecutor,
		Message:  "Executor re-entered",
		Detail:   "RunUntilStalled or Run was called from inside a task being polled by the same executor.",
	},

	// ============================================
	// Configuration (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Invalid liveui.json",
		Detail:   "The liveui.json configuration file is malformed.",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No liveui.json was found at the given path.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
