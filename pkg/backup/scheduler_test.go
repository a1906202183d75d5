/*
Copyright The Mongo Cluster Operator Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package backup

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/robfig/cron"
)

var _ = Describe("BackupFileName", func() {
	It("formats the namespace/name/timestamp archive path", func() {
		at := time.Date(2026, 7, 30, 12, 30, 0, 0, time.UTC)
		Expect(BackupFileName("default", "mongo-cluster", at)).To(
			Equal("/tmp/mongodb-backup-default-mongo-cluster-2026-07-30_123000.archive.gz"))
	})

	It("normalizes non-UTC timestamps to UTC before formatting", func() {
		loc := time.FixedZone("UTC+2", 2*60*60)
		at := time.Date(2026, 7, 30, 14, 30, 0, 0, loc)
		Expect(BackupFileName("default", "mongo-cluster", at)).To(
			Equal("/tmp/mongodb-backup-default-mongo-cluster-2026-07-30_123000.archive.gz"))
	})
})

// Cron cadence exercises the literal scenario from spec §8: a sweep at
// 12:30 fires (no prior backup), 12:50 does not, 13:05 fires (next after
// 12:30 is 13:00), and 13:50 does not.
var _ = Describe("cron cadence", func() {
	It("fires only when the schedule's next tick has elapsed since the last backup", func() {
		schedule, err := cron.ParseStandard("0 * * * *")
		Expect(err).NotTo(HaveOccurred())

		var last time.Time
		var known bool

		fire := func(now time.Time) bool {
			var nextFire time.Time
			if !known {
				nextFire = now
			} else {
				nextFire = schedule.Next(last)
			}
			fired := !nextFire.After(now)
			if fired {
				last = now
				known = true
			}
			return fired
		}

		Expect(fire(time.Date(2026, 7, 30, 12, 30, 0, 0, time.UTC))).To(BeTrue(), "first sweep, no prior backup")
		Expect(fire(time.Date(2026, 7, 30, 12, 50, 0, 0, time.UTC))).To(BeFalse(), "too soon after first backup")
		Expect(fire(time.Date(2026, 7, 30, 13, 5, 0, 0, time.UTC))).To(BeTrue(), "next hourly firing due")
		Expect(fire(time.Date(2026, 7, 30, 13, 50, 0, 0, time.UTC))).To(BeFalse(), "after the due firing, too soon again")
	})
})
