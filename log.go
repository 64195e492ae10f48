// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import "github.com/sirupsen/logrus"

const (
	fieldSubsys   = "subsys"
	fieldQueue    = "queue"
	fieldConsumer = "consumer"
	fieldSequence = "seq"
)

var log = logrus.WithField(fieldSubsys, "evq")
