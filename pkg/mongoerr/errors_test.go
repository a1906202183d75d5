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

package mongoerr

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classify", func() {
	DescribeTable("recognized Mongo error messages",
		func(err error, want error) {
			Expect(Classify(err)).To(MatchError(want))
		},
		Entry("no config received", errors.New("no replset config has been received"), ErrNoConfigReceived),
		Entry("not master", errors.New("couldn't add user: not master"), ErrNotMaster),
		Entry("already exists", errors.New(`User "root@admin" already exists`), ErrUserAlreadyExists),
	)

	It("passes unrecognized errors through unchanged", func() {
		err := errors.New("connection reset by peer")
		Expect(Classify(err)).To(MatchError(err))
	})
})

var _ = Describe("UnexpectedResponse", func() {
	It("unwraps to the inner error", func() {
		inner := errors.New("ok=false")
		ur := &UnexpectedResponse{Command: "replSetGetStatus", Err: inner}

		Expect(errors.Is(ur, inner)).To(BeTrue())
		Expect(ur.Error()).NotTo(BeEmpty())
	})
})
