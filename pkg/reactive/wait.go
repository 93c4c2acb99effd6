package reactive

import "github.com/vango-dev/liveui/pkg/async"

// UntilChange returns a future that becomes ready once the version of obs
// moves past the version observed when UntilChange was called.
func UntilChange(obs Listenable) async.Future[Version] {
	return Changed(obs, obs.Version())
}

// Changed returns a future that becomes ready with the new version once
// obs is newer than since.
func Changed(obs Listenable, since Version) async.Future[Version] {
	return async.FutureFunc[Version](func(cx *async.Context) (Version, bool) {
		if v := obs.Version(); v.After(since) {
			return v, true
		}
		obs.AddWaker(cx.Waker())
		// The version may have moved between the check and the registration.
		if v := obs.Version(); v.After(since) {
			return v, true
		}
		return NullVersion, false
	})
}

// Watch returns a future that calls fn with the value of obs on its first
// poll and again after every change. It never completes; cancel the task
// that runs it to stop watching.
func Watch[T any](obs Observable[T], fn func(T)) async.Future[struct{}] {
	last := NullVersion
	return async.FutureFunc[struct{}](func(cx *async.Context) (struct{}, bool) {
		for {
			if v := obs.Version(); v.After(last) {
				last = v
				fn(Get(obs))
			}
			obs.AddWaker(cx.Waker())
			if !obs.Version().After(last) {
				return struct{}{}, false
			}
		}
	})
}
