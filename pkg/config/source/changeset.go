package source

import (
	"crypto/md5"
	"fmt"
)

// Sum 返回变更数据的md5校验和
func (c *ChangeSet) Sum() string {
	h := md5.New()
	h.Write(c.Data)
	return fmt.Sprintf("%x", h.Sum(nil))
}
